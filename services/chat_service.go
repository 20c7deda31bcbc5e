package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studenteats/models"
	"studenteats/utils"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	chatMaxIterations  = 5
	chatHistoryDefault = 10
	chatHistoryMax     = 50
)

// ChatModel is the part of a langchaingo model the assistant uses.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

type ChatService struct {
	db            *gorm.DB
	llm           ChatModel
	tools         *ToolRegistry
	maxIterations int
	now           func() time.Time

	tracer    trace.Tracer
	toolCalls metric.Int64Counter
	runs      metric.Int64Counter
}

func NewChatService(db *gorm.DB, llm ChatModel, tools *ToolRegistry) *ChatService {
	meter := otel.Meter("studenteats/services/chat")
	toolCalls, _ := meter.Int64Counter("chat_tool_calls_total",
		metric.WithDescription("Tool calls executed on behalf of the chat model"))
	runs, _ := meter.Int64Counter("chat_runs_total",
		metric.WithDescription("Chat requests handled"))
	return &ChatService{
		db:            db,
		llm:           llm,
		tools:         tools,
		maxIterations: chatMaxIterations,
		now:           time.Now,
		tracer:        otel.Tracer("studenteats/services/chat"),
		toolCalls:     toolCalls,
		runs:          runs,
	}
}

type ChatRequest struct {
	UserID       string        `json:"user_id" binding:"required"`
	Message      string        `json:"message" binding:"required,max=4000"`
	UserLocation *UserLocation `json:"user_location"`
}

type ChatResponse struct {
	Response  string    `json:"response"`
	ToolsUsed []string  `json:"tools_used"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat answers one user message, letting the model call tools for up to
// maxIterations rounds. Both sides of the exchange are saved best effort.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.Chat")
	defer span.End()

	if err := validateInput(req); err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, &Error{Kind: KindUpstream, Message: "chat assistant is not configured"}
	}
	span.SetAttributes(attribute.String("user_id", req.UserID))

	history, err := s.History(ctx, req.UserID, chatHistoryDefault)
	if err != nil {
		slog.Warn("chat history unavailable, continuing without it", "user_id", req.UserID, "err", err)
		history = nil
	}

	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt(ctx, req))}
	for _, h := range history {
		role := llms.ChatMessageTypeHuman
		if h.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, h.Message))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Message))
	s.saveMessage(ctx, req.UserID, "user", req.Message)

	tc := ToolContext{UserID: req.UserID, Location: req.UserLocation}
	opts := []llms.CallOption{llms.WithTools(s.tools.Definitions())}
	out := &ChatResponse{ToolsUsed: []string{}}

	for iter := 0; iter < s.maxIterations && out.Response == ""; iter++ {
		resp, err := s.llm.GenerateContent(ctx, messages, opts...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "model call failed")
			return nil, Upstream("contacting the chat model", err)
		}
		if len(resp.Choices) == 0 {
			return nil, &Error{Kind: KindUpstream, Message: "chat model returned no answer"}
		}
		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			out.Response = strings.TrimSpace(choice.Content)
			break
		}

		parts := make([]llms.ContentPart, 0, len(choice.ToolCalls)+1)
		if choice.Content != "" {
			parts = append(parts, llms.TextContent{Text: choice.Content})
		}
		for _, call := range choice.ToolCalls {
			parts = append(parts, call)
		}
		messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})

		for _, call := range choice.ToolCalls {
			name, args := "", ""
			if call.FunctionCall != nil {
				name, args = call.FunctionCall.Name, call.FunctionCall.Arguments
			}
			result := s.runTool(ctx, tc, name, args)
			out.ToolsUsed = append(out.ToolsUsed, name)
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{ToolCallID: call.ID, Name: name, Content: result}},
			})
		}
	}

	if out.Response == "" {
		out.Response = "Sorry, I could not finish that request. Could you rephrase it?"
	}
	s.saveMessage(ctx, req.UserID, "assistant", out.Response)
	s.runs.Add(ctx, 1)
	out.Timestamp = s.now().UTC()
	return out, nil
}

// runTool never fails the conversation: errors go back to the model as text.
func (s *ChatService) runTool(ctx context.Context, tc ToolContext, name, args string) string {
	ctx, span := s.tracer.Start(ctx, "ChatService.tool", trace.WithAttributes(attribute.String("tool", name)))
	defer span.End()

	result, err := s.tools.Invoke(ctx, tc, name, args)
	s.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", name),
		attribute.Bool("error", err != nil),
	))
	if err != nil {
		e := AsError(err)
		span.RecordError(err)
		slog.Info("tool call failed", "tool", name, "kind", e.Kind, "err", err)
		return "Error: " + e.Message
	}
	return result
}

func (s *ChatService) systemPrompt(ctx context.Context, req ChatRequest) string {
	now := s.now()
	var b strings.Builder
	b.WriteString("You help university students find dining hall food, place delivery or pickup orders, and track nutrition. ")
	b.WriteString("Use the tools for every fact about menus, orders and meal logs; never invent items or ids. ")
	b.WriteString("Confirm item choices and the delivery location before calling create_order.\n")
	fmt.Fprintf(&b, "Today is %s.", utils.CanonicalDate(now))
	if utils.IsWeekendAt(utils.CanonicalDate(now), now) {
		b.WriteString(" " + weekendClosedMessage)
	}
	if req.UserLocation != nil && req.UserLocation.Label != "" {
		fmt.Fprintf(&b, "\nThe user is at %s.", req.UserLocation.Label)
	}
	if dates, err := s.tools.foods.AvailableDates(ctx, ""); err == nil && len(dates) > 0 {
		fmt.Fprintf(&b, "\nMenus are loaded for: %s.", strings.Join(dates, "; "))
	}
	return b.String()
}

// ---------- History ----------

// saveMessage is best effort; a failed write is logged and the chat goes on.
func (s *ChatService) saveMessage(ctx context.Context, userID, role, message string) {
	msg := models.ChatMessage{UserID: userID, Role: role, Message: message}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		slog.Warn("saving chat message failed", "user_id", userID, "role", role, "err", err)
	}
}

// History returns up to limit most recent messages in chronological order.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	limit, err := clampLimit(limit, chatHistoryDefault, chatHistoryMax)
	if err != nil {
		return nil, err
	}
	var msgs []models.ChatMessage
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, Upstream("loading chat history", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *ChatService) ClearHistory(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ChatMessage{})
	if res.Error != nil {
		return 0, Upstream("clearing chat history", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *ChatService) Tools() *ToolRegistry { return s.tools }
