// Package cli implements a minimal debug REPL exercising pkg/engine
// directly: read a line, dispatch it, print the result, repeat until EOF
// or an explicit quit command.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hanzi-ime/imecore/pkg/engine"
)

// Commands recognized by the REPL besides a bare phonetic string.
const (
	cmdQuit   = ":q"
	cmdCommit = ":commit"
	cmdStats  = ":stats"
	cmdClear  = ":clear"
)

var (
	rankStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).Bold(true)
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"}).Italic(true)
)

// REPL drives an Engine from line-oriented input, printing candidates one
// per line. It never exits the process itself; Run returns when in
// reaches EOF or a quit command is read.
type REPL struct {
	Engine *engine.Engine
	In     io.Reader
	Out    io.Writer
}

// Run reads lines from r.In until EOF or ":q", dispatching each to the
// Engine and writing results to r.Out.
func (r *REPL) Run() error {
	scanner := bufio.NewScanner(r.In)
	fmt.Fprintln(r.Out, "imecore debug REPL — type a phonetic string, or :q to quit, :commit <phrase>, :stats, :clear")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == cmdQuit {
			return nil
		}
		if strings.HasPrefix(line, cmdCommit+" ") {
			phrase := strings.TrimSpace(strings.TrimPrefix(line, cmdCommit+" "))
			if err := r.Engine.Commit(phrase); err != nil {
				fmt.Fprintf(r.Out, "commit error: %v\n", err)
				continue
			}
			fmt.Fprintf(r.Out, "committed %q\n", phrase)
			continue
		}
		if line == cmdStats {
			hits, misses, size, capacity := r.Engine.CacheStats()
			fmt.Fprintf(r.Out, "hits=%d misses=%d size=%d capacity=%d\n", hits, misses, size, capacity)
			continue
		}
		if line == cmdClear {
			r.Engine.ClearCache()
			fmt.Fprintln(r.Out, "cache cleared")
			continue
		}

		candidates := r.Engine.Input(line)
		if len(candidates) == 0 {
			fmt.Fprintln(r.Out, "(no candidates)")
			continue
		}
		for i, c := range candidates {
			fmt.Fprintf(r.Out, "%s %s  %s\n",
				rankStyle.Render(fmt.Sprintf("%2d.", i+1)), c.Text, scoreStyle.Render(fmt.Sprintf("(%.4f)", c.Score)))
		}
	}
	return scanner.Err()
}
