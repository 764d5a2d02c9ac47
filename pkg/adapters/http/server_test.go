package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterhttp "github.com/flowcoreio/flowcore/pkg/adapters/http"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/session"
)

type fakeAssembler struct {
	resp       *domain.Response
	err        error
	section    domain.Section
	questions  []domain.Question
	actions    []domain.Action
	inspectErr error
	gotReq     session.Request
}

func (f *fakeAssembler) NextQuestionFlow(_ context.Context, req session.Request) (*domain.Response, error) {
	f.gotReq = req
	return f.resp, f.err
}

func (f *fakeAssembler) Inspect(_ context.Context, sectionID string) (domain.Section, []domain.Question, []domain.Action, error) {
	return f.section, f.questions, f.actions, f.inspectErr
}

func TestServer_NextQuestionFlow_Success(t *testing.T) {
	fa := &fakeAssembler{resp: &domain.Response{
		SectionID:      "SEC_1",
		CreatedNodeIDs: []int64{},
		Warnings:       []domain.Warning{},
	}}
	handler := adapterhttp.NewHandler(fa, nil)

	body := bytes.NewBufferString(`{"sectionId":"SEC_1","age":30}`)
	req := httptest.NewRequest("POST", "/v1/api/next_question_flow", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "SEC_1", fa.gotReq.SectionID)
	assert.Equal(t, float64(30), fa.gotReq.Inputs["age"].AsFloat())

	var decoded domain.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "SEC_1", decoded.SectionID)
}

func TestServer_NextQuestionFlow_MissingSectionID(t *testing.T) {
	handler := adapterhttp.NewHandler(&fakeAssembler{}, nil)

	body := bytes.NewBufferString(`{"age":30}`)
	req := httptest.NewRequest("POST", "/v1/api/next_question_flow", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, 409, rec.Code)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "invalid_request", decoded["errorType"])
}

func TestServer_NextQuestionFlow_MalformedBody(t *testing.T) {
	handler := adapterhttp.NewHandler(&fakeAssembler{}, nil)

	req := httptest.NewRequest("POST", "/v1/api/next_question_flow", bytes.NewBufferString(`{`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, 409, rec.Code)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "invalid_request", decoded["errorType"])
}

func TestServer_NextQuestionFlow_SectionNotFoundMapsTo409(t *testing.T) {
	fa := &fakeAssembler{err: domain.NewSectionNotFound("SEC_X")}
	handler := adapterhttp.NewHandler(fa, nil)

	req := httptest.NewRequest("POST", "/v1/api/next_question_flow", bytes.NewBufferString(`{"sectionId":"SEC_X"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, 409, rec.Code)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "section_not_found", decoded["errorType"])
}

func TestServer_NextQuestionFlow_UnavailableMapsTo500(t *testing.T) {
	fa := &fakeAssembler{err: &domain.EngineError{Kind: domain.ErrUnavailable, Message: "graph store down"}}
	handler := adapterhttp.NewHandler(fa, nil)

	req := httptest.NewRequest("POST", "/v1/api/next_question_flow", bytes.NewBufferString(`{"sectionId":"SEC_1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, 500, rec.Code)
}

func TestServer_InspectSection(t *testing.T) {
	fa := &fakeAssembler{
		section:   domain.Section{ID: "SEC_1", Name: "intake", Version: 1, Active: true},
		questions: []domain.Question{{ID: "Q1", Prompt: "age?"}},
		actions:   []domain.Action{{ID: "A1", Type: domain.ActionGotoSection}},
	}
	handler := adapterhttp.NewHandler(fa, nil)

	req := httptest.NewRequest("GET", "/v1/api/sections/SEC_1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	section := decoded["section"].(map[string]any)
	assert.Equal(t, "SEC_1", section["sectionId"])
}

func TestServer_Healthz(t *testing.T) {
	handler := adapterhttp.NewHandler(&fakeAssembler{}, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
