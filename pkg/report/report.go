package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/macvmio/regusage/pkg/usage"
	"gopkg.in/yaml.v3"
)

// TagNames encodes as null in both JSON and YAML when nil.
type TagNames []string

func (t TagNames) MarshalYAML() (interface{}, error) {
	if t == nil {
		return nil, nil
	}
	return []string(t), nil
}

// TagSizes encodes as null in both JSON and YAML when nil.
type TagSizes map[string]usage.Size

func (t TagSizes) MarshalYAML() (interface{}, error) {
	if t == nil {
		return nil, nil
	}
	return map[string]usage.Size(t), nil
}

// Document is the exported form of a snapshot. Unavailable repositories have
// null tags and sizes.
type Document struct {
	Registry            string                `json:"registry,omitempty" yaml:"registry,omitempty"`
	RepositoryTags      map[string]TagNames   `json:"repository_tags" yaml:"repository_tags"`
	RepositorySizes     map[string]usage.Size `json:"repository_sizes" yaml:"repository_sizes"`
	RepositoryDiskSizes map[string]usage.Size `json:"repository_disk_sizes" yaml:"repository_disk_sizes"`
	TagSizes            map[string]TagSizes   `json:"tag_sizes" yaml:"tag_sizes"`
	TagDiskSizes        map[string]TagSizes   `json:"tag_disk_sizes" yaml:"tag_disk_sizes"`
	TotalSize           int64                 `json:"total_size" yaml:"total_size"`
	TotalDiskSize       int64                 `json:"total_disk_size" yaml:"total_disk_size"`
}

func NewDocument(registry string, s *usage.Snapshot) Document {
	doc := Document{
		Registry:            registry,
		RepositoryTags:      map[string]TagNames{},
		RepositorySizes:     map[string]usage.Size{},
		RepositoryDiskSizes: map[string]usage.Size{},
		TagSizes:            map[string]TagSizes{},
		TagDiskSizes:        map[string]TagSizes{},
		TotalSize:           s.TotalSize(),
		TotalDiskSize:       s.TotalDiskSize(),
	}
	for _, repo := range s.Usage() {
		doc.RepositorySizes[repo.Name] = repo.Size
		doc.RepositoryDiskSizes[repo.Name] = repo.DiskSize
		if !repo.Available {
			doc.RepositoryTags[repo.Name] = nil
			doc.TagSizes[repo.Name] = nil
			doc.TagDiskSizes[repo.Name] = nil
			continue
		}
		tags := make(TagNames, 0, len(repo.Tags))
		tagSizes := make(TagSizes, len(repo.Tags))
		tagDiskSizes := make(TagSizes, len(repo.Tags))
		for _, tag := range repo.Tags {
			tags = append(tags, tag.Name)
			tagSizes[tag.Name] = tag.Size
			tagDiskSizes[tag.Name] = tag.DiskSize
		}
		doc.RepositoryTags[repo.Name] = tags
		doc.TagSizes[repo.Name] = tagSizes
		doc.TagDiskSizes[repo.Name] = tagDiskSizes
	}
	return doc
}

// Write renders a snapshot in the configured format.
func Write(w io.Writer, s *usage.Snapshot, opt ...Option) error {
	opts := makeOptions(opt...)
	switch opts.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		if err := enc.Encode(NewDocument(opts.registry, s)); err != nil {
			return fmt.Errorf("unable to encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(opts.registry, s)); err != nil {
			return fmt.Errorf("unable to encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatTable:
		return writeTable(w, Sorted(s.Usage(), opts.order), s.TotalSize(), s.TotalDiskSize(), opts.colored)
	default:
		return fmt.Errorf("unknown output format '%s'", opts.format)
	}
}

// sortKey orders unavailable sizes before every known size.
func sortKey(s usage.Size) int64 {
	if n, ok := s.Bytes(); ok {
		return n
	}
	return -1
}

// Sorted orders repositories and their tags. Sizes sort ascending, names break ties.
func Sorted(repos []usage.RepositoryUsage, order SortOrder) []usage.RepositoryUsage {
	res := slices.Clone(repos)
	repoKey := func(r usage.RepositoryUsage) int64 { return 0 }
	tagKey := func(t usage.TagUsage) int64 { return 0 }
	switch order {
	case SortBySize:
		repoKey = func(r usage.RepositoryUsage) int64 { return sortKey(r.Size) }
		tagKey = func(t usage.TagUsage) int64 { return sortKey(t.Size) }
	case SortByDiskSize:
		repoKey = func(r usage.RepositoryUsage) int64 { return sortKey(r.DiskSize) }
		tagKey = func(t usage.TagUsage) int64 { return sortKey(t.DiskSize) }
	}
	slices.SortStableFunc(res, func(a, b usage.RepositoryUsage) int {
		return cmp.Or(cmp.Compare(repoKey(a), repoKey(b)), strings.Compare(a.Name, b.Name))
	})
	for i := range res {
		tags := slices.Clone(res[i].Tags)
		slices.SortStableFunc(tags, func(a, b usage.TagUsage) int {
			return cmp.Or(cmp.Compare(tagKey(a), tagKey(b)), strings.Compare(a.Name, b.Name))
		})
		res[i].Tags = tags
	}
	return res
}

type palette struct {
	repository, tag, repositorySize, tagSize, total *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		repository:     color.New(color.FgCyan, color.Bold),
		tag:            color.New(color.FgBlue, color.Bold),
		repositorySize: color.New(color.FgYellow, color.Bold),
		tagSize:        color.New(color.FgGreen, color.Bold),
		total:          color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.repository, p.tag, p.repositorySize, p.tagSize, p.total} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// HumanSize formats a byte count with binary prefixes and four significant digits.
func HumanSize(n int64) string {
	return units.BytesSize(float64(n))
}

func humanSize(s usage.Size) string {
	n, ok := s.Bytes()
	if !ok {
		return "n/a"
	}
	return HumanSize(n)
}

func labelWidth(repos []usage.RepositoryUsage) int {
	width := 0
	for _, r := range repos {
		width = max(width, len(r.Name))
		for _, t := range r.Tags {
			width = max(width, len(t.Name)-4)
		}
	}
	return width
}

func writeTable(w io.Writer, repos []usage.RepositoryUsage, total, totalDisk int64, colored bool) error {
	p := newPalette(colored)
	width := labelWidth(repos)
	var b strings.Builder
	for _, r := range repos {
		name := p.repository.Sprintf("%*s", width, r.Name)
		if !r.Available {
			fmt.Fprintf(&b, "%s:     no further information available\n\n", name)
			continue
		}
		fmt.Fprintf(&b, "%s:     repository size: %s, repository disk size: %s\n",
			name,
			p.repositorySize.Sprintf("%9s", humanSize(r.Size)),
			p.repositorySize.Sprintf("%9s", humanSize(r.DiskSize)))
		for _, t := range r.Tags {
			fmt.Fprintf(&b, "%s:   tag size: %s,   tag disk size: %s\n",
				p.tag.Sprintf("%*s", width+4, t.Name),
				p.tagSize.Sprintf("%9s", humanSize(t.Size)),
				p.tagSize.Sprintf("%9s", humanSize(t.DiskSize)))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%*stotal size: %s, total disk size: %s\n",
		width+6, "",
		p.total.Sprintf("%9s", HumanSize(total)),
		p.total.Sprintf("%9s", HumanSize(totalDisk)))
	_, err := io.WriteString(w, b.String())
	return err
}
