package provenance

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// frame is one entry on the span stack.
type frame struct {
	name  string
	attrs map[string]string
}

type spanStack struct {
	frames []frame
}

type spanKeyType int

const spanKey spanKeyType = 0

// Span pushes a named, attributed frame for the duration of fn, annotating
// every node created inside with meta.span, meta.span_hierarchy,
// meta.span_depth, and meta.span_attrs. Like the policy stack, this is
// rendered as a scoped higher-order call rather than a literal mutable
// stack, so release on every exit path (including panics) is automatic.
func Span(ctx context.Context, name string, attrs map[string]string, fn func(ctx context.Context) error) error {
	prev, _ := ctx.Value(spanKey).(*spanStack)
	next := &spanStack{}
	if prev != nil {
		next.frames = append(next.frames, prev.frames...)
	}
	next.frames = append(next.frames, frame{name: name, attrs: attrs})
	return fn(context.WithValue(ctx, spanKey, next))
}

// spanMeta returns the span-related meta entries to attach to a node created
// under ctx, or nil if no span is active.
func spanMeta(ctx context.Context) map[string]string {
	stack, _ := ctx.Value(spanKey).(*spanStack)
	if stack == nil || len(stack.frames) == 0 {
		return nil
	}
	names := make([]string, len(stack.frames))
	for i, f := range stack.frames {
		names[i] = f.name
	}
	top := stack.frames[len(stack.frames)-1]
	meta := map[string]string{
		"span":           top.name,
		"span_hierarchy": strings.Join(names, ">"),
		"span_depth":     strconv.Itoa(len(names)),
	}
	if len(top.attrs) > 0 {
		keys := make([]string, 0, len(top.attrs))
		for k := range top.attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(top.attrs[k])
		}
		meta["span_attrs"] = b.String()
	}
	return meta
}
