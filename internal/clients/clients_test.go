package clients

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRequiresNameAndEmail(t *testing.T) {
	err := Fields{Name: "", Email: "x@y.com"}.Validate()
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), "nome")
	require.NotContains(t, err.Error(), "email")

	err = Fields{Name: "  ", Email: " "}.Validate()
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), "nome, email")

	require.NoError(t, Fields{Name: "Ana", Email: "ana@example.com"}.Validate())
}

func TestPatchOmitsUnsetMembers(t *testing.T) {
	email := "new@example.com"
	raw, err := json.Marshal(Patch{Email: &email})
	require.NoError(t, err)
	require.JSONEq(t, `{"email":"new@example.com"}`, string(raw))
	require.False(t, Patch{Email: &email}.IsEmpty())
	require.True(t, Patch{}.IsEmpty())
}

func TestPatchApply(t *testing.T) {
	base := Fields{Name: "Ana", Email: "ana@example.com", Phone: "123"}
	phone := ""
	got := Patch{Phone: &phone}.Apply(base)
	require.Equal(t, Fields{Name: "Ana", Email: "ana@example.com"}, got)

	require.Equal(t, base, base.Patch().Apply(Fields{}))
}

func TestRecordWireShape(t *testing.T) {
	var page Page
	err := json.Unmarshal([]byte(`{
		"records": [{"id": "rec1", "createdTime": "2024-01-01T00:00:00.000Z",
			"fields": {"nome": "Ana", "email": "ana@example.com"}}],
		"offset": "itr1/rec1"
	}`), &page)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "rec1", page.Records[0].ID)
	require.Equal(t, "Ana", page.Records[0].Fields.Name)
	require.Equal(t, "", page.Records[0].Fields.Phone)
	require.Equal(t, "itr1/rec1", page.Offset)
}

func TestValidateID(t *testing.T) {
	require.ErrorIs(t, ValidateID(" "), ErrMissingID)
	require.NoError(t, ValidateID("rec1"))
}
