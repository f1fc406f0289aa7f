package reference

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// SyncStore is the write side of the reference directory.
type SyncStore interface {
	UpsertUnit(ctx context.Context, unit Unit) error
	UpsertSubdivision(ctx context.Context, sub Subdivision) (created bool, err error)
}

// SyncReport summarizes one directory synchronization run.
type SyncReport struct {
	Created int
	Updated int
	Aliases int
}

type syncFile struct {
	Pus []syncUnit `yaml:"pus"`
}

type syncUnit struct {
	Name         string            `yaml:"name"`
	FullName     string            `yaml:"full_name"`
	Subdivisions []syncSubdivision `yaml:"subdivisions"`
}

type syncSubdivision struct {
	Type      string        `yaml:"type"`
	Number    *int          `yaml:"number"`
	Name      string        `yaml:"name"`
	Locality  *syncLocality `yaml:"locality"`
	Code      string        `yaml:"code"`
	ShortName string        `yaml:"short_name"`
	FullName  string        `yaml:"fullname"`
	FullName2 string        `yaml:"full_name"`
	Aliases   []string      `yaml:"aliases"`
}

type syncLocality struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
}

// Sync imports the subdivision directory from its YAML form, building short
// and full names when the file does not spell them out.
func Sync(ctx context.Context, store SyncStore, r io.Reader) (*SyncReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeBadRequest, "read directory file")
	}
	var file syncFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeBadRequest, "parse directory file")
	}

	report := &SyncReport{}
	for _, unit := range file.Pus {
		if unit.Name == "" {
			return nil, derrors.New(derrors.CodeBadRequest, "every unit entry requires a 'name'")
		}
		fullName := unit.FullName
		if fullName == "" {
			fullName = unit.Name
		}
		if err := store.UpsertUnit(ctx, Unit{ShortName: unit.Name, FullName: fullName}); err != nil {
			return nil, err
		}

		for _, raw := range unit.Subdivisions {
			if raw.Type == "" {
				return nil, derrors.New(derrors.CodeBadRequest, "every subdivision entry requires a 'type'")
			}
			sub := buildSubdivision(unit.Name, raw)
			report.Aliases += len(sub.Aliases)

			created, err := store.UpsertSubdivision(ctx, sub)
			if err != nil {
				return nil, err
			}
			if created {
				report.Created++
			} else {
				report.Updated++
			}
		}
	}
	return report, nil
}

func buildSubdivision(unitName string, raw syncSubdivision) Subdivision {
	shortName := raw.ShortName
	if shortName == "" {
		shortName = buildShortName(raw.Type, raw.Number, raw.Name)
	}
	fullName := raw.FullName
	if fullName == "" {
		fullName = raw.FullName2
	}
	if fullName == "" {
		fullName = buildFullName(shortName, raw.Locality)
	}

	aliases := make([]string, 0, len(raw.Aliases))
	for _, alias := range raw.Aliases {
		if a := strings.TrimSpace(alias); a != "" {
			aliases = append(aliases, a)
		}
	}
	return Subdivision{
		Code:      raw.Code,
		UnitName:  unitName,
		ShortName: shortName,
		FullName:  fullName,
		Aliases:   aliases,
	}
}

func buildShortName(divType string, number *int, name string) string {
	switch {
	case number != nil:
		return fmt.Sprintf("%s №%d", divType, *number)
	case name != "":
		return fmt.Sprintf("%s «%s»", divType, name)
	default:
		return divType
	}
}

func buildFullName(shortName string, locality *syncLocality) string {
	if locality == nil {
		return shortName
	}
	kind := strings.TrimSpace(locality.Kind)
	name := strings.TrimSpace(locality.Name)
	if kind == "" || name == "" {
		return shortName
	}
	return fmt.Sprintf("%s (%s %s)", shortName, kind, name)
}
