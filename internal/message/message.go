// internal/message/message.go
//
// MovieNest – flash notices.
//
// Context
//   Controllers report outcomes as short notices (“Movie updated
//   successfully!”, “Login failed”).  When a handler redirects, the notice
//   is parked in the session and popped by the next rendered page, which
//   shows it as a dismissible toast.  When a handler re-renders in place,
//   the notice is passed to the template directly and never touches the
//   session.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import "context"

// Kind selects the toast styling.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notice is one user-visible message.  The zero value means “none”.
type Notice struct {
	Kind Kind
	Text string
}

// Empty reports whether n carries no text.
func (n Notice) Empty() bool { return n.Text == "" }

// OK builds a success notice.
func OK(text string) Notice { return Notice{Kind: Success, Text: text} }

// Fail builds an error notice.
func Fail(text string) Notice { return Notice{Kind: Error, Text: text} }

// Store is the subset of *scs.SessionManager used for flashes.
type Store interface {
	Put(ctx context.Context, key string, val interface{})
	PopString(ctx context.Context, key string) string
}

const (
	keyText = "flash"
	keyKind = "flash_kind"
)

// Flash parks n for the next page.  Empty notices are ignored.
func Flash(ctx context.Context, s Store, n Notice) {
	if n.Empty() {
		return
	}
	s.Put(ctx, keyText, n.Text)
	s.Put(ctx, keyKind, string(n.Kind))
}

// Pop returns and clears the parked notice.
func Pop(ctx context.Context, s Store) Notice {
	text := s.PopString(ctx, keyText)
	kind := Kind(s.PopString(ctx, keyKind))
	if text == "" {
		return Notice{}
	}
	if kind == "" {
		kind = Success
	}
	return Notice{Kind: kind, Text: text}
}
