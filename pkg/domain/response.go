package domain

// Response is the shape assembled by the Session/Response assembler
// (SPEC_FULL.md §4.7), returned as JSON for every traversal outcome.
type Response struct {
	SectionID        string               `json:"sectionId"`
	Question         *Question            `json:"question"`
	NextSectionID    *string              `json:"nextSectionId"`
	CreatedNodeIDs   []int64              `json:"createdNodeIds"`
	Completed        bool                 `json:"completed"`
	RequestVariables map[string]Value     `json:"requestVariables"`
	SourceNode       *NodeRef             `json:"sourceNode"`
	Vars             map[string]VarReport `json:"vars"`
	Warnings         []Warning            `json:"warnings"`
}
