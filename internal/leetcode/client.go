package leetcode

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/John-Robertt/lcharvest/internal/config"
	"github.com/John-Robertt/lcharvest/internal/infra/httpx"
)

// QuestionQuery 按 titleSlug 查询单题详情。
const QuestionQuery = `
query getQuestionDetail($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionFrontendId
    title
    content
    difficulty
  }
}
`

const snippetLimit = 256

// Client 封装目录接口（GET）与详情接口（GraphQL POST）。
//
// 约束：
// - 不做重试、不做限速（限速由富化循环统一控制）
// - 目录请求不设超时；详情请求使用 RequestTimeout
type Client struct {
	catalog *resty.Client
	detail  *resty.Client

	catalogURL string
	graphqlURL string
}

// New 按最终配置构造 Client。logger 为 nil 时使用 zap.NewNop()。
func New(eff config.EffectiveConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	catalogHTTP, err := httpx.NewClient(httpx.Options{
		ProxyURL:  eff.ProxyURL,
		UserAgent: eff.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	detailHTTP, err := httpx.NewClient(httpx.Options{
		ProxyURL:  eff.ProxyURL,
		UserAgent: eff.UserAgent,
		Timeout:   eff.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	sugar := logger.Named("resty").Sugar()
	return &Client{
		catalog:    resty.NewWithClient(catalogHTTP).SetLogger(sugar),
		detail:     resty.NewWithClient(detailHTTP).SetLogger(sugar),
		catalogURL: eff.CatalogURL,
		graphqlURL: eff.GraphQLURL,
	}, nil
}

// FetchCatalog 拉取完整题目列表，返回 stat_status_pairs 的原始元素（字段不缺失时保持原序）。
// 字段缺失时返回空切片而不是错误。
func (c *Client) FetchCatalog(ctx context.Context) ([]json.RawMessage, error) {
	resp, err := c.catalog.R().
		SetContext(ctx).
		Get(c.catalogURL)
	if err != nil {
		return nil, &TransportError{URL: c.catalogURL, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, statusError(c.catalogURL, resp)
	}

	var payload struct {
		StatStatusPairs []json.RawMessage `json:"stat_status_pairs"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &DecodeError{URL: c.catalogURL, Err: err}
	}
	return payload.StatStatusPairs, nil
}

// Question 是 GraphQL 返回的单题详情。
// 字段用指针/RawMessage 区分“缺失”和“空值”，由调用方决定如何处理。
type Question struct {
	FrontendID json.RawMessage `json:"questionFrontendId"`
	Title      *string         `json:"title"`
	Content    *string         `json:"content"`
	Difficulty *string         `json:"difficulty"`
}

// GraphQLError 是 GraphQL 响应里的 errors 元素。
type GraphQLError struct {
	Message string `json:"message"`
}

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

// FetchQuestion 查询单题详情。
//
// 返回值：
// - q 为 nil 且 err 为 nil：接口正常返回但 data.question 缺失（例如 slug 不存在）
// - gqlErrs：响应中的 GraphQL errors（仅用于诊断）
func (c *Client) FetchQuestion(ctx context.Context, slug string) (q *Question, gqlErrs []GraphQLError, err error) {
	resp, err := c.detail.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(graphQLRequest{
			Query:     QuestionQuery,
			Variables: map[string]string{"titleSlug": slug},
		}).
		Post(c.graphqlURL)
	if err != nil {
		return nil, nil, &TransportError{URL: c.graphqlURL, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, nil, statusError(c.graphqlURL, resp)
	}

	var payload struct {
		Data struct {
			Question *Question `json:"question"`
		} `json:"data"`
		Errors []GraphQLError `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, nil, &DecodeError{URL: c.graphqlURL, Err: err}
	}
	return payload.Data.Question, payload.Errors, nil
}

func statusError(u string, resp *resty.Response) *HTTPStatusError {
	s := strings.TrimSpace(string(resp.Body()))
	if r := []rune(s); len(r) > snippetLimit {
		s = string(r[:snippetLimit]) + "…"
	}
	return &HTTPStatusError{URL: u, StatusCode: resp.StatusCode(), Snippet: s}
}
