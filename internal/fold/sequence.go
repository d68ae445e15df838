package fold

import "go.uber.org/zap"

// Phase tracks where the sequencer is relative to the most recent
// definition header. At most one phase is active at a time.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseInsideHeader
	PhaseAfterHeader
	PhaseInsideDocstring
	PhaseAfterDocstring
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseInsideHeader:
		return "inside-header"
	case PhaseAfterHeader:
		return "after-header"
	case PhaseInsideDocstring:
		return "inside-docstring"
	case PhaseAfterDocstring:
		return "after-docstring"
	default:
		return "unknown"
	}
}

// passState is everything the forward pass carries from one line to the
// next. Two passes that reach equal states on equal remaining input produce
// equal remaining levels.
type passState struct {
	Lex   LexState
	Phase Phase
	Level int
}

type sequencer struct {
	state      passState
	shiftWidth int
	logger     *zap.Logger
}

func newSequencer(shiftWidth int, logger *zap.Logger) *sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sequencer{shiftWidth: shiftWidth, logger: logger}
}

// step classifies line and returns its fold level.
func (s *sequencer) step(lineNum int, line string) int {
	facts := ClassifyLine(&s.state.Lex, line)
	prev := s.state.Phase
	level := s.state.Level

	switch {
	case facts.Blank:

	case facts.BeginsDefinition:
		level = facts.IndentColumn / s.shiftWidth
		if facts.Nested || facts.InString {
			s.state.Phase = PhaseInsideHeader
		} else {
			s.state.Phase = PhaseAfterHeader
		}

	case s.state.Phase == PhaseInsideHeader:
		if !facts.Nested && !facts.InString {
			s.state.Phase = PhaseAfterHeader
		}

	case s.state.Phase == PhaseAfterHeader:
		switch {
		case facts.BeginsTripleQuote && facts.InString:
			s.state.Phase = PhaseInsideDocstring
		default:
			// One-line docstring, quote-style mismatch, or no docstring at all.
			level++
			s.state.Phase = PhaseNone
		}

	case s.state.Phase == PhaseInsideDocstring:
		if !facts.InString {
			s.state.Phase = PhaseAfterDocstring
		}

	case s.state.Phase == PhaseAfterDocstring:
		level++
		s.state.Phase = PhaseNone
	}

	s.state.Level = level

	if ce := s.logger.Check(zap.DebugLevel, "fold line"); ce != nil {
		ce.Write(
			zap.Int("line", lineNum),
			zap.Int("level", level),
			zap.Int("indent", facts.IndentColumn),
			zap.Stringer("from", prev),
			zap.Stringer("to", s.state.Phase),
			zap.Bool("nested", facts.Nested),
			zap.Bool("in_string", facts.InString),
		)
	}
	return level
}
