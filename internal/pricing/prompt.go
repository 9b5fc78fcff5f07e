// Copyright 2024 SageMaker Chatbot Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pricing

import "fmt"

// sqlTemplate constrains generation to one schema-valid sqlite query. The
// exemplars enforce the ml.<family>.<size> canonical instance token and the
// table defaulting rules.
const sqlTemplate = `Given an input question, create a single syntactically correct sqlite query to run.
You can order the results by a relevant column to return the most interesting examples in the database.

Never query for all the columns from a specific table, only ask for a few relevant columns given the question.

Pay attention to use only the column names that you can see in the schema description. Be careful to not query for columns that do not exist.
Also, qualify column names with the table name when needed.
If no particular table is specified in the question, use the training_price table.
If inference is mentioned, you must use the real_time_inference_price table unless asynchronous/async or accelerator is specifically mentioned.

Only use tables listed below.
%s
Do not under any circumstance use SELECT * in your query.

You must convert any mentioned instance names to the format ml.INSTANCE_FAMILY.INSTANCE_SIZE. A few examples:

Query: "how much is p3.8xlarge per hour for training?"
Response: "SELECT instance_type, price_per_hour
FROM training_price
WHERE instance_type = 'ml.p3.8xlarge'
ORDER BY price_per_hour DESC"

Query: "how much does p32xlarge, p3 8xlarge and p3.16xlarge cost per hour?"
Response: "SELECT instance_type, price_per_hour
FROM training_price
WHERE instance_type IN ('ml.p3.2xlarge', 'ml.p3.8xlarge', 'ml.p3.16xlarge')
ORDER BY price_per_hour;"

Query: "Compare the price per hour of c5.4xlarge and trn1n.32xlarge for inference."
Response: "SELECT instance_type, price_per_hour
FROM real_time_inference_price
WHERE instance_type IN ('ml.c5.4xlarge', 'ml.trn1n.32xlarge')
ORDER BY price_per_hour ASC;"

Respond with only the SQL query, nothing else.

Question: %s
SQLQuery: `

// responseTemplate synthesizes a natural-language answer from the executed
// query. An empty result set must be reported as no data found, never as a
// made-up figure.
const responseTemplate = `If the <SQL Response> below contains data, then given an input question, synthesize a response from the query results.
If the <SQL Response> is empty, then you should not synthesize a response and instead respond that no data was found for the question.

Query: %s
SQL: %s
<SQL Response>: %s </SQL Response>

Do not make any mention of queries or databases in your response, instead you can say 'according to the latest information'.

Please make sure to mention any additional details from the context supporting your response.

Response: `

// buildSQLPrompt renders the query-generation prompt for the given schema.
func buildSQLPrompt(schema, question string) string {
	return fmt.Sprintf(sqlTemplate, schema, question)
}

// buildResponsePrompt renders the answer-synthesis prompt.
func buildResponsePrompt(question, query, resultText string) string {
	return fmt.Sprintf(responseTemplate, question, query, resultText)
}
