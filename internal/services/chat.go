package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/llm"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/platform/search"
)

const (
	chatHistoryTurns  = 6
	chatContextChunks = 4
	chatSuggestions   = 3
)

type ChatRequest struct {
	Message     string `json:"message"`
	RawMessage  string `json:"raw_message"`
	UserContext string `json:"user_context"`
	ID          string `json:"id"`
	VideoURL    string `json:"video_url"`
}

type ChatResponse struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type ChatService interface {
	Respond(dbc dbctx.Context, req ChatRequest) (*ChatResponse, error)
	IndexInvalidator
}

type chatService struct {
	log     *logger.Logger
	llm     llm.Client
	turns   repos.ChatTurnRepo
	src     transcripts
	indexes *search.Cache
}

func NewChatService(baseLog *logger.Logger, client llm.Client, records repos.DashboardRecordRepo, turns repos.ChatTurnRepo, bucket gcp.BucketService) ChatService {
	return &chatService{
		log:     baseLog.With("service", "ChatService"),
		llm:     client,
		turns:   turns,
		src:     transcripts{records: records, bucket: bucket},
		indexes: search.NewCache(32),
	}
}

const chatSystemPrompt = `You are a financial assistant answering questions about one company's earnings call.
Give objective answers at all times.
The transcript excerpts below come from the call; the opening usually names the company and the participants.
Use the excerpts and the conversation so far to answer.
Assume the user is not a financial expert and explain any jargon you use.
If the user raises anything unrelated to this earnings call, politely say you can only discuss this call and do not answer it.
Do not start your response by citing the transcript.`

func (s *chatService) Respond(dbc dbctx.Context, req ChatRequest) (*ChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, apierr.BadRequest("missing_message", "message is required")
	}
	if s.llm == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "llm_unavailable", fmt.Errorf("chat is not configured: no LLM client"))
	}
	rec, err := s.src.record(dbc, RecordRef{ID: req.ID, VideoURL: req.VideoURL})
	if err != nil {
		return nil, err
	}
	if rec.TranscriptFilename == "" {
		return nil, apierr.NotFound("transcript_not_found", "no transcript for this dashboard")
	}
	idx, err := s.indexes.Get(indexKey(rec), func() (string, error) { return s.src.text(dbc.Ctx, rec) })
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.RawMessage)
	if query == "" {
		query = msg
	}
	chunks, err := idx.Top(query, chatContextChunks)
	if err != nil {
		return nil, err
	}
	history, err := s.turns.Recent(dbc, rec.VideoIdentifier, chatHistoryTurns)
	if err != nil {
		return nil, err
	}

	answer, err := s.llm.Complete(dbc.Ctx, llm.Request{
		System:  buildChatSystem(req.UserContext, chunks),
		History: historyMessages(history),
		User:    msg,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if _, err := s.turns.Create(dbc, &types.ChatTurn{
		VideoIdentifier: rec.VideoIdentifier,
		Question:        query,
		Answer:          answer,
	}); err != nil {
		s.log.Warn("Failed to store chat turn", "video_identifier", rec.VideoIdentifier, "error", err)
	}

	return &ChatResponse{Response: answer, Suggestions: s.suggest(dbc, query, answer, chunks)}, nil
}

func (s *chatService) Invalidate(videoIdentifier string) {
	s.indexes.Forget(videoIdentifier + "|")
}

func indexKey(rec *types.DashboardRecord) string {
	return rec.VideoIdentifier + "|" + rec.TranscriptFilename
}

func buildChatSystem(userContext string, chunks []search.Chunk) string {
	var b strings.Builder
	b.WriteString(chatSystemPrompt)
	if uc := strings.TrimSpace(userContext); uc != "" {
		b.WriteString("\n\nInvestor profile (tailor depth and focus to it):\n")
		b.WriteString(uc)
	}
	b.WriteString("\n\nTranscript excerpts:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Text)
	}
	return b.String()
}

func historyMessages(turns []*types.ChatTurn) []llm.Message {
	out := make([]llm.Message, 0, len(turns)*2)
	for _, t := range turns {
		out = append(out,
			llm.Message{Role: llm.RoleUser, Content: t.Question},
			llm.Message{Role: llm.RoleAssistant, Content: t.Answer},
		)
	}
	return out
}

// suggest asks for short follow-up questions. Any failure omits suggestions.
func (s *chatService) suggest(dbc dbctx.Context, question, answer string, chunks []search.Chunk) []string {
	var ctxText strings.Builder
	for _, c := range chunks {
		ctxText.WriteString(c.Text)
		ctxText.WriteString("\n")
	}
	raw, err := s.llm.Complete(dbc.Ctx, llm.Request{
		System: "You suggest follow-up questions a non-expert investor might ask about an earnings call. " +
			"Reply with only a JSON array of exactly 3 short questions.",
		User:      fmt.Sprintf("Call excerpts:\n%s\nUser asked: %s\nAssistant answered: %s", ctxText.String(), question, answer),
		MaxTokens: 200,
	})
	if err != nil {
		s.log.Debug("Suggestion request failed", "error", err)
		return nil
	}
	return ParseSuggestions(raw)
}

// ParseSuggestions reads a JSON array of strings, keeping at most three non-empty entries.
func ParseSuggestions(raw string) []string {
	var qs []string
	if err := json.Unmarshal([]byte(llm.CleanJSONArray(raw)), &qs); err != nil {
		return nil
	}
	out := make([]string, 0, chatSuggestions)
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
		if len(out) == chatSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
