// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ik5/audresynth/brain"
	"github.com/ik5/audresynth/chunker"
	"github.com/ik5/audresynth/config"
)

var (
	accentColor = lipgloss.Color("#7D56F4")
	mutedColor  = lipgloss.Color("#888888")
	warnColor   = lipgloss.Color("#FFA500")
	errorColor  = lipgloss.Color("#A40000")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginBottom(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(14)

	valueStyle = lipgloss.NewStyle().Bold(true)

	warnStyle = lipgloss.NewStyle().Foreground(warnColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			PaddingRight(2)

	cellStyle = lipgloss.NewStyle().PaddingRight(2)
)

func printError(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error:")+" "+msg)
}

func printVersion(v string) {
	fmt.Println(titleStyle.Render("audresynth"))
	fmt.Println(keyValue("version", v))
}

func keyValue(k string, v any) string {
	return keyStyle.Render(k) + valueStyle.Render(fmt.Sprint(v))
}

func printConfig(w io.Writer, cfg config.Config) {
	lines := []string{
		titleStyle.Render("Configuration"),
		keyValue("sample rate", fmt.Sprintf("%d Hz", cfg.SampleRate)),
		keyValue("channels", cfg.Channels),
		keyValue("chunk size", cfg.ChunkSize),
		keyValue("transformer", cfg.Transformer),
		keyValue("windows", fmt.Sprintf("%s / %s / %s", cfg.AnalysisWindow, cfg.OutputWindow, cfg.BrainWindow)),
		keyValue("overlap", cfg.Overlap),
		keyValue("spectral", cfg.Spectral),
		keyValue("morph", fmt.Sprintf("%s (%.2f)", cfg.Morph, cfg.MorphAmount)),
		keyValue("agc", cfg.AGC),
		keyValue("log level", cfg.LogLevel),
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printCorpus(w io.Writer, source string, b *brain.Brain) {
	files := b.Files()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Corpus " + source))
	sb.WriteString("\n")
	sb.WriteString(keyValue("sample rate", fmt.Sprintf("%d Hz", b.SampleRate())))
	sb.WriteString("\n")
	sb.WriteString(keyValue("channels", b.Channels()))
	sb.WriteString("\n")
	sb.WriteString(keyValue("chunk size", b.ChunkSize()))
	sb.WriteString("\n")
	sb.WriteString(keyValue("chunks", b.TotalChunks()))
	sb.WriteString("\n\n")

	if len(files) == 0 {
		sb.WriteString(warnStyle.Render("no files"))
		fmt.Fprintln(w, sb.String())
		return
	}

	rows := [][]string{{"ID", "NAME", "DURATION", "CHUNKS"}}
	for _, f := range files {
		dur := time.Duration(float64(f.Frames) / float64(b.SampleRate()) * float64(time.Second))
		rows = append(rows, []string{
			fmt.Sprint(f.ID),
			f.Name,
			dur.Round(time.Millisecond).String(),
			fmt.Sprint(f.Chunks),
		})
	}
	sb.WriteString(table(rows))
	fmt.Fprintln(w, sb.String())
}

// table renders rows as left-aligned columns; the first row is the header.
func table(rows [][]string) string {
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	lines := make([]string, 0, len(rows))
	for n, r := range rows {
		style := cellStyle
		if n == 0 {
			style = headerStyle
		}
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = style.Width(widths[i] + 2).Render(c)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

type renderSummary struct {
	Input       string
	Output      string
	Config      config.Config
	Frames      int
	Latency     int
	CorpusFiles int
	Chunks      int
	Stats       chunker.Stats
	Elapsed     time.Duration
}

func printRender(w io.Writer, s renderSummary) {
	rate := float64(s.Config.SampleRate)
	audioLen := time.Duration(float64(s.Frames) / rate * float64(time.Second))
	latency := time.Duration(float64(s.Latency) / rate * float64(time.Second))

	lines := []string{
		titleStyle.Render("Rendered " + s.Output),
		keyValue("input", s.Input),
		keyValue("transformer", s.Config.Transformer),
		keyValue("duration", audioLen.Round(time.Millisecond)),
		keyValue("latency", fmt.Sprintf("%d frames (%s)", s.Latency, latency.Round(time.Microsecond))),
		keyValue("corpus", fmt.Sprintf("%d files, %d chunks", s.CorpusFiles, s.Chunks)),
		keyValue("chunks", s.Stats.Chunks),
		keyValue("elapsed", s.Elapsed.Round(time.Millisecond)),
	}
	if dropped := s.Stats.ShedHops + s.Stats.DroppedPending + s.Stats.DroppedReady; dropped > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("%d chunks dropped", dropped)))
	}
	if s.Stats.Underruns > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("%d underruns", s.Stats.Underruns)))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
