/*
Package flowcore implements a stateless graph-traversal engine for
dynamic questionnaires: a property graph of Sections, Questions, Actions,
and Datapoints, walked fresh on every request against the caller-supplied
input parameters and any answers already recorded in the graph.

# Concept

Every request names a starting Section and carries its declared input
parameters. The engine walks the section's outgoing edges in order,
evaluating each edge's askWhen predicate and resolving its sourceNode,
until it reaches a Question the source node has not yet answered, an
Action configured to return immediately, or the section's edges are
exhausted. No traversal state is kept between requests; the graph itself
(via versioned, ANSWERS-linked Datapoint vertices) is the only durable
state.

# Usage

	eng, err := flowcore.New(ctx, "bolt://localhost:7687", "neo4j", "password")
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close(ctx)

	resp, err := eng.NextQuestionFlow(ctx, session.Request{
		SectionID: "SEC_INTAKE",
		Inputs:    map[string]domain.Value{"applicantId": domain.String("A-1")},
	})

# Architecture

The engine is organized as six ports-and-adapters components: a
GraphStore wrapping a pluggable GraphDriver (Neo4j bolt by default), a
sandboxed script evaluator for Lua predicate/body expressions, a template
renderer for scope-qualified interpolation, a variable resolver that
memoizes cypher/script evaluation per traversal, the traversal engine
itself, and a Session/Response assembler that shapes the JSON contract.
*/
package flowcore
