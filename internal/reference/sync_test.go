package reference

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

const directoryYAML = `
pus:
  - name: "ПУ Южное"
    full_name: "Пограничное управление Южное"
    subdivisions:
      - type: "ПЗ"
        number: 3
        locality:
          kind: "село"
          name: "Горное"
        code: "pz-3"
        aliases: ["Горная", "застава 3"]
      - type: "КПП"
        name: "Заря"
        code: "kpp-zarya"
      - type: "ОПК"
        code: "opk-1"
`

func TestSync(t *testing.T) {
	store := NewMemoryStore()
	report, err := Sync(context.Background(), store, strings.NewReader(directoryYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, report.Aliases)

	subs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 3)

	byCode := map[string]Subdivision{}
	for _, s := range subs {
		byCode[s.Code] = s
	}

	numbered := byCode["pz-3"]
	assert.Equal(t, "ПЗ №3", numbered.ShortName)
	assert.Equal(t, "ПЗ №3 (село Горное)", numbered.FullName)
	assert.Equal(t, "ПУ Южное", numbered.UnitName)
	assert.Equal(t, []string{"Горная", "застава 3"}, numbered.Aliases)

	named := byCode["kpp-zarya"]
	assert.Equal(t, "КПП «Заря»", named.ShortName)
	assert.Equal(t, "КПП «Заря»", named.FullName)

	bare := byCode["opk-1"]
	assert.Equal(t, "ОПК", bare.ShortName)
}

func TestSync_SecondRunUpdates(t *testing.T) {
	store := NewMemoryStore()
	_, err := Sync(context.Background(), store, strings.NewReader(directoryYAML))
	require.NoError(t, err)

	report, err := Sync(context.Background(), store, strings.NewReader(directoryYAML))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 3, report.Updated)

	subs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}

func TestSync_MissingUnitName(t *testing.T) {
	_, err := Sync(context.Background(), NewMemoryStore(), strings.NewReader(`
pus:
  - subdivisions:
      - type: "ПЗ"
        number: 1
`))
	require.Error(t, err)
	assert.Equal(t, derrors.CodeBadRequest, derrors.CodeOf(err))
	assert.Contains(t, err.Error(), "'name'")
}

func TestSync_MissingSubdivisionType(t *testing.T) {
	_, err := Sync(context.Background(), NewMemoryStore(), strings.NewReader(`
pus:
  - name: "ПУ"
    subdivisions:
      - number: 1
`))
	require.Error(t, err)
	assert.Equal(t, derrors.CodeBadRequest, derrors.CodeOf(err))
	assert.Contains(t, err.Error(), "'type'")
}

func TestSync_MalformedYAML(t *testing.T) {
	_, err := Sync(context.Background(), NewMemoryStore(), strings.NewReader("pus: ["))
	require.Error(t, err)
	assert.Equal(t, derrors.CodeBadRequest, derrors.CodeOf(err))
}

func TestStoplist(t *testing.T) {
	tokens := Stoplist([]Subdivision{
		{
			ShortName: "ПЗ №3",
			FullName:  "пограничная застава №3 «Горная»",
			Aliases:   []string{"Горная", "з-3"},
		},
	})

	assert.Contains(t, tokens, "пограничная")
	assert.Contains(t, tokens, "застава")
	assert.Contains(t, tokens, "горная")
	// Short and numeric tokens stay out.
	assert.NotContains(t, tokens, "пз")
	assert.NotContains(t, tokens, "3")
}
