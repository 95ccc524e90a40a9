package summarizer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/infra/summarizer"
)

// testOpenAIConfigForSummarizerTests creates a default test configuration for OpenAI
func testOpenAIConfigForSummarizerTests() *summarizer.OpenAIConfig {
	return &summarizer.OpenAIConfig{
		CharacterLimit: 900,
		Language:       "japanese",
		Model:          "gpt-3.5-turbo",
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
	}
}

/* ───────── Claude Summarizer テスト ───────── */

func TestNewClaude(t *testing.T) {
	// Claudeインスタンスが正しく作成されることを確認
	claude := summarizer.NewClaude("test-api-key")
	if claude == nil {
		t.Fatal("NewClaude() returned nil")
	}
}

func TestClaude_Summarize_EmptyText(t *testing.T) {
	// 空のテキストでも処理できることを確認（APIキーは無効でOK、エラー処理の確認）
	claude := summarizer.NewClaude("invalid-test-key")

	// 空のテキストを渡す
	_, err := claude.Summarize(context.Background(), "", entity.LangKo)
	// API呼び出しはエラーになるが、パニックしないことを確認
	if err == nil {
		// 無効なAPIキーなので通常はエラーになるはず
		t.Log("Summarize with empty text did not error (unexpected but OK for test)")
	}
}

func TestClaude_Summarize_ContextTimeout(t *testing.T) {
	claude := summarizer.NewClaude("invalid-test-key")

	// 即座にタイムアウトするコンテキスト
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // タイムアウトを確実にする

	_, err := claude.Summarize(ctx, "test text", entity.LangKo)
	if err == nil {
		t.Error("Summarize() with canceled context should return error")
	}
}

/* ───────── OpenAI Summarizer テスト ───────── */

func TestNewOpenAI(t *testing.T) {
	// OpenAIインスタンスが正しく作成されることを確認
	openai := summarizer.NewOpenAI("test-api-key", testOpenAIConfigForSummarizerTests())
	if openai == nil {
		t.Fatal("NewOpenAI() returned nil")
	}
}

func TestOpenAI_Summarize_EmptyText(t *testing.T) {
	openai := summarizer.NewOpenAI("invalid-test-key", testOpenAIConfigForSummarizerTests())

	// 空のテキストを渡す
	_, err := openai.Summarize(context.Background(), "", entity.LangKo)
	// API呼び出しはエラーになるが、パニックしないことを確認
	if err == nil {
		// 無効なAPIキーなので通常はエラーになるはず
		t.Log("Summarize with empty text did not error (unexpected but OK for test)")
	}
}

func TestOpenAI_Summarize_ContextTimeout(t *testing.T) {
	openai := summarizer.NewOpenAI("invalid-test-key", testOpenAIConfigForSummarizerTests())

	// 即座にタイムアウトするコンテキスト
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // タイムアウトを確実にする

	_, err := openai.Summarize(ctx, "test text", entity.LangKo)
	if err == nil {
		t.Error("Summarize() with canceled context should return error")
	}
}

/* ───────── パニック対策のテスト ───────── */

func TestOpenAI_Summarize_NoPanic(t *testing.T) {
	// OpenAI Summarizeがパニックしないことを確認
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("OpenAI.Summarize() panicked: %v", r)
		}
	}()

	openai := summarizer.NewOpenAI("invalid-key", testOpenAIConfigForSummarizerTests())
	// 無効なAPIキーでもパニックせずエラーを返すこと
	_, err := openai.Summarize(context.Background(), "test", entity.LangKo)
	if err == nil {
		t.Log("No error returned (unexpected but no panic is good)")
	}
}

func TestClaude_Summarize_NoPanic(t *testing.T) {
	// Claude Summarizeがパニックしないことを確認
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Claude.Summarize() panicked: %v", r)
		}
	}()

	claude := summarizer.NewClaude("invalid-key")
	// 無効なAPIキーでもパニックせずエラーを返すこと
	_, err := claude.Summarize(context.Background(), "test", entity.LangKo)
	if err == nil {
		t.Log("No error returned (unexpected but no panic is good)")
	}
}

/* ───────── Long Text Truncation Tests ───────── */

func TestOpenAI_Summarize_LongText(t *testing.T) {
	openai := summarizer.NewOpenAI("invalid-test-key", testOpenAIConfigForSummarizerTests())

	// Create text longer than maxChars (10000) to trigger truncation
	longText := strings.Repeat("あ", 15000) // 45000 bytes (3 bytes per char)

	ctx := context.Background()
	_, err := openai.Summarize(ctx, longText, entity.LangKo)

	// Will error due to invalid API key, but truncation code path is executed
	if err == nil {
		t.Log("Unexpected success with invalid API key")
	}
	// The important part is that the test exercises the truncation branch
}

func TestClaude_Summarize_LongText(t *testing.T) {
	claude := summarizer.NewClaude("invalid-test-key")

	// Create text longer than maxChars (10000) to trigger truncation
	longText := strings.Repeat("あ", 15000) // 45000 bytes

	ctx := context.Background()
	_, err := claude.Summarize(ctx, longText, entity.LangKo)

	// Will error due to invalid API key, but truncation code path is executed
	if err == nil {
		t.Log("Unexpected success with invalid API key")
	}
	// The important part is that the test exercises the truncation branch
}

/* ───────── タイムアウト設定の検証 ───────── */

func TestSummarizers_HaveTimeout(t *testing.T) {
	// Summarizeメソッドが内部で60秒のタイムアウトを設定していることの間接的な確認
	// （実際のタイムアウト動作は統合テストで確認するため、ここでは構造のみ）

	claudeS := summarizer.NewClaude("key")
	openaiS := summarizer.NewOpenAI("key", testOpenAIConfigForSummarizerTests())

	tests := []struct {
		name string
		fn   func(ctx context.Context, text string, lang entity.Lang) (string, error)
	}{
		{
			name: "Claude",
			fn:   claudeS.Summarize,
		},
		{
			name: "OpenAI",
			fn:   openaiS.Summarize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 親コンテキストのタイムアウトより短い時間で処理が中断されることを確認
			// （実際にはAPI呼び出しエラーになるが、タイムアウト処理が存在することを確認）
			ctx := context.Background()
			_, err := tt.fn(ctx, "test", entity.LangKo)
			// エラーは返るが、パニックしないことが重要
			if err == nil {
				t.Log("No error (unexpected but OK for structure test)")
			}
		})
	}
}
