package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/tourney/internal/adapters/mq/queue"
	"github.com/okian/tourney/internal/domain/model"
)

const maxLineBytes = 1 << 20

var errEmptyLine = errors.New("line holds neither a run nor a milestone")

// factLine is one line of a fact log: {"run": {...}} or {"milestone": {...}}.
type factLine struct {
	Run       *model.Run       `json:"run,omitempty"`
	Milestone *model.Milestone `json:"milestone,omitempty"`
}

func (l factLine) fact() (queue.Fact, error) {
	switch {
	case l.Run != nil && l.Milestone != nil:
		return queue.Fact{}, errors.New("line holds both a run and a milestone")
	case l.Run != nil:
		return queue.RunFact(l.Run), nil
	case l.Milestone != nil:
		return queue.MilestoneFact(l.Milestone), nil
	}
	return queue.Fact{}, errEmptyLine
}

// readFacts calls fn for every fact of the log at path, in file order.
// "-" reads standard input.
func readFacts(path string, stdin io.Reader, fn func(line int, f queue.Fact) error) error {
	var src io.Reader = stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open fact log: %w", err)
		}
		defer func() { _ = fh.Close() }()
		src = fh
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)
	for n := 1; sc.Scan(); n++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var l factLine
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		f, err := l.fact()
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := fn(n, f); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read fact log: %w", err)
	}
	return nil
}

// tally counts what happened to the facts of one log.
type tally struct {
	Applied   int
	Duplicate int
	Malformed int
}

func (t tally) String() string {
	return fmt.Sprintf("applied=%d duplicate=%d malformed=%d", t.Applied, t.Duplicate, t.Malformed)
}
