package biz

import (
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/internal/model"
)

// greetings 直接走对话路径的问候语。
var greetings = map[string]struct{}{
	"hi":           {},
	"hello":        {},
	"hey":          {},
	"good morning": {},
	"good evening": {},
}

// meaningfulShortQueries 虽短但仍需检索的查询词。
var meaningfulShortQueries = map[string]struct{}{
	"help": {},
	"info": {},
}

// QueryRouter 决定查询走对话路径还是检索路径。
type QueryRouter struct{}

// NewQueryRouter 创建查询路由器。
func NewQueryRouter() *QueryRouter {
	return &QueryRouter{}
}

// Route 对查询分类。问候语和无意义的超短查询走对话路径，
// 其余走检索路径。分类基于去除首尾空白并转小写后的文本。
func (r *QueryRouter) Route(query string) *model.RouteDecision {
	normalized := strings.ToLower(strings.TrimSpace(query))

	if _, ok := greetings[normalized]; ok {
		logger.Debugw("query routed to chat", "reason", "greeting")
		return &model.RouteDecision{
			Kind:   model.RouteChat,
			Reason: "greeting",
		}
	}

	tokens := strings.Fields(normalized)
	if len(tokens) < 2 {
		keep := false
		if len(tokens) == 1 {
			_, keep = meaningfulShortQueries[tokens[0]]
		}
		if !keep {
			logger.Debugw("query routed to chat", "reason", "too short")
			return &model.RouteDecision{
				Kind:   model.RouteChat,
				Reason: "too short",
			}
		}
	}

	return &model.RouteDecision{
		Kind:   model.RouteRAG,
		Reason: "knowledge query",
	}
}
