package report

import "fmt"

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format '%s', expected one of: table, json, yaml", s)
}

// SortOrder decides the order of repositories and of the tags inside them.
type SortOrder string

const (
	SortByName     SortOrder = "name"
	SortBySize     SortOrder = "size"
	SortByDiskSize SortOrder = "disksize"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortByName, SortBySize, SortByDiskSize:
		return o, nil
	}
	return "", fmt.Errorf("unknown sorting order '%s', expected one of: name, size, disksize", s)
}

type options struct {
	format   Format
	order    SortOrder
	colored  bool
	registry string
}

type Option func(opts *options)

func WithFormat(format Format) Option {
	return func(o *options) {
		o.format = format
	}
}

func WithSortOrder(order SortOrder) Option {
	return func(o *options) {
		o.order = order
	}
}

// WithColor forces colored table output on or off.
func WithColor(colored bool) Option {
	return func(o *options) {
		o.colored = colored
	}
}

// WithRegistry names the registry in exported documents.
func WithRegistry(registry string) Option {
	return func(o *options) {
		o.registry = registry
	}
}

func makeOptions(opts ...Option) *options {
	res := options{
		format: FormatTable,
		order:  SortByName,
	}
	for _, o := range opts {
		o(&res)
	}
	return &res
}
