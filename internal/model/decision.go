// Package model defines shared types for the slug server.
package model

// Request is the part of an inbound GET that classification looks at.
// RawQuery is kept verbatim so forwarded queries are never re-encoded or
// re-ordered.
type Request struct {
	Path     string
	RawQuery string
}

// DecisionKind tags which case of a Decision is active.
type DecisionKind int

const (
	// DecisionPassThrough forwards the original path and query unchanged.
	DecisionPassThrough DecisionKind = iota
	// DecisionRewrite serves TargetPath with RawQuery reattached.
	DecisionRewrite
	// DecisionReject ends the request with StatusCode and Message.
	DecisionReject
)

// String returns the label used in logs and metrics.
func (k DecisionKind) String() string {
	switch k {
	case DecisionRewrite:
		return "rewrite"
	case DecisionReject:
		return "reject"
	default:
		return "pass_through"
	}
}

// Decision is the outcome of classifying a Request. Only the fields of the
// active Kind are set.
type Decision struct {
	Kind DecisionKind

	// Rewrite
	TargetPath string
	RawQuery   string

	// Reject
	StatusCode int
	Message    string
}

// PassThrough returns a pass-through decision.
func PassThrough() Decision {
	return Decision{Kind: DecisionPassThrough}
}

// Rewrite returns a decision serving target with the given raw query.
func Rewrite(target, rawQuery string) Decision {
	return Decision{Kind: DecisionRewrite, TargetPath: target, RawQuery: rawQuery}
}

// Reject returns a decision that terminates the request with an error response.
func Reject(statusCode int, message string) Decision {
	return Decision{Kind: DecisionReject, StatusCode: statusCode, Message: message}
}

// URL returns the effective request URI of a rewrite: TargetPath plus
// RawQuery when it is non-empty.
func (d Decision) URL() string {
	if d.RawQuery == "" {
		return d.TargetPath
	}
	return d.TargetPath + "?" + d.RawQuery
}
