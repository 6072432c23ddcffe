package build

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// OS is a buildable operating system release. Alias, Version and Arch
// together identify it.
type OS struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Alias   string `json:"alias" yaml:"alias"`
	Arch    string `json:"arch" yaml:"arch"`
}

// Release names the OS as alias-version-arch.
func (o *OS) Release() string {
	return o.Alias + "-" + o.Version + "-" + o.Arch
}

// Normalize lower-cases the alias and architecture.
func (o *OS) Normalize() {
	o.Name = strings.TrimSpace(o.Name)
	o.Version = strings.TrimSpace(o.Version)
	o.Alias = strings.ToLower(strings.TrimSpace(o.Alias))
	o.Arch = strings.ToLower(strings.TrimSpace(o.Arch))
}

// Validate checks the identifying fields.
func (o *OS) Validate() error {
	if o.Alias == "" || o.Version == "" || o.Arch == "" {
		return fmt.Errorf("os alias, version and arch are required")
	}
	if o.Name == "" {
		return fmt.Errorf("os %s: name is required", o.Release())
	}
	return nil
}

// AddOS adds an OS release to the catalog.
func (s *Service) AddOS(ctx context.Context, o OS) error {
	o.Normalize()
	if err := o.Validate(); err != nil {
		return err
	}

	_, err := s.db.LookupID(ctx, query.BuildOSIDOnAlias, value.Text(o.Alias), value.Text(o.Version), value.Text(o.Arch))
	if found, err := exists(err); err != nil {
		return fmt.Errorf("failed to look up os %s: %w", o.Release(), err)
	} else if found {
		return fmt.Errorf("os %s: %w", o.Release(), store.ErrExists)
	}

	if _, err := s.db.Write(ctx, query.Insert, query.InsertBuildOS,
		value.Text(o.Name), value.Text(o.Version), value.Text(o.Alias), value.Text(o.Arch), s.now()); err != nil {
		return fmt.Errorf("failed to add os %s: %w", o.Release(), err)
	}
	log.Printf("Added os %s", o.Release())
	return nil
}

// OSes lists the OS catalog.
func (s *Service) OSes(ctx context.Context) ([]OS, error) {
	rows, err := s.rows(ctx, query.Basic, query.AllBuildOS)
	if err != nil {
		return nil, fmt.Errorf("failed to list os releases: %w", err)
	}
	out := make([]OS, 0, len(rows))
	for _, r := range rows {
		out = append(out, OS{
			Alias:   value.ToString(r[0]),
			Name:    value.ToString(r[1]),
			Version: value.ToString(r[2]),
			Arch:    value.ToString(r[3]),
		})
	}
	return out, nil
}

// Varient is a named build profile, for example a package set.
type Varient struct {
	Name  string `json:"name" yaml:"name"`
	Alias string `json:"alias" yaml:"alias"`
}

// AddVarient adds a build profile. Neither the name nor the alias may be in
// use.
func (s *Service) AddVarient(ctx context.Context, v Varient) error {
	v.Name = strings.TrimSpace(v.Name)
	v.Alias = strings.ToLower(strings.TrimSpace(v.Alias))
	if v.Name == "" || v.Alias == "" {
		return fmt.Errorf("varient name and alias are required")
	}

	_, err := s.db.LookupID(ctx, query.VarientIDOnAlias, value.Text(v.Alias), value.Text(v.Name))
	if found, err := exists(err); err != nil {
		return fmt.Errorf("failed to look up varient %s: %w", v.Alias, err)
	} else if found {
		return fmt.Errorf("varient %s: %w", v.Alias, store.ErrExists)
	}

	if _, err := s.db.Write(ctx, query.Insert, query.InsertVarient,
		value.Text(v.Name), value.Text(v.Alias), s.now()); err != nil {
		return fmt.Errorf("failed to add varient %s: %w", v.Alias, err)
	}
	log.Printf("Added varient %s (%s)", v.Alias, v.Name)
	return nil
}

// Varients lists the build profiles.
func (s *Service) Varients(ctx context.Context) ([]Varient, error) {
	rows, err := s.rows(ctx, query.Basic, query.AllVarients)
	if err != nil {
		return nil, fmt.Errorf("failed to list varients: %w", err)
	}
	out := make([]Varient, 0, len(rows))
	for _, r := range rows {
		out = append(out, Varient{Name: value.ToString(r[0]), Alias: value.ToString(r[1])})
	}
	return out, nil
}

// RemoveVarient deletes a build profile by alias.
func (s *Service) RemoveVarient(ctx context.Context, alias string) error {
	alias = strings.ToLower(strings.TrimSpace(alias))
	n, err := s.db.Write(ctx, query.Delete, query.DeleteVarientOnAlias, value.Text(alias))
	if err != nil {
		return fmt.Errorf("failed to remove varient %s: %w", alias, err)
	}
	if n == 0 {
		return fmt.Errorf("varient %s: %w", alias, store.ErrNotFound)
	}
	return nil
}
