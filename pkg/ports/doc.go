// Package ports defines the two abstract collaborators the traversal core
// consumes: GraphDriver (a parameterised-query executor over the schema/data
// graph) and ScriptSandbox (a restricted expression evaluator). Concrete
// implementations live under pkg/adapters/*.
package ports
