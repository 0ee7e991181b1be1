package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// LLM 原始报文落盘：独立 writer，便于单独翻查模型输入输出。

type llmSection struct {
	Title string
	Body  string
}

type llmSink struct {
	mu  sync.Mutex
	out *log.Logger
}

func (l *Logger) SetLLMWriter(w io.Writer) {
	if l == nil {
		return
	}
	l.llm.mu.Lock()
	defer l.llm.mu.Unlock()
	if w == nil {
		l.llm.out = nil
		return
	}
	l.llm.out = log.New(w, "", log.LstdFlags)
}

func (l *Logger) logLLM(kind string, sections []llmSection) {
	if l == nil {
		return
	}
	l.llm.mu.Lock()
	out := l.llm.out
	l.llm.mu.Unlock()
	if out == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM][" + kind + "]\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- " + t + " ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	out.Print(b.String())
}

func (l *Logger) LogLLMRequest(systemPrompt, userPrompt string) {
	l.logLLM("request", []llmSection{
		{Title: "SYSTEM", Body: systemPrompt},
		{Title: "USER", Body: userPrompt},
	})
}

func (l *Logger) LogLLMResponse(raw, reasoning string) {
	sections := []llmSection{{Title: "RAW", Body: raw}}
	if strings.TrimSpace(reasoning) != "" {
		sections = append(sections, llmSection{Title: "REASONING", Body: reasoning})
	}
	l.logLLM("response", sections)
}
