package fields

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/analytics"
)

func mustRecords(t *testing.T, payload string) []*analytics.Record {
	t.Helper()
	records, err := analytics.ParseRecords([]byte(payload))
	require.NoError(t, err)
	return records
}

func TestFormatFieldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ticket_id", "Ticket ID"},
		{"createdAt", "Created At"},
		{"id", "ID"},
		{"_id", "ID"},
		{"assigned_to_id", "Assigned To ID"},
		{"total_tickets_assigned", "Total Tickets Assigned"},
		{"_total_count", "Total Count"},
		{"userID", "User ID"},
		{"first-name", "First Name"},
		{"HTTPStatus", "Http Status"},
		{"ALL_CAPS", "All Caps"},
		{"PRIORITY", "Priority"},
		{"status", "Status"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFieldName(tt.in))
		})
	}
}

func TestFormatFieldName_Idempotent(t *testing.T) {
	for _, key := range []string{"ticket_id", "createdAt", "id", "_total_count", "HTTPStatus", "ALL_CAPS", "user_email"} {
		once := FormatFieldName(key)
		assert.Equal(t, once, FormatFieldName(once), key)
	}
}

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  Type
	}{
		{"id literal", "id", 7.0, TypeID},
		{"mongo id", "_id", "abc", TypeID},
		{"suffix id", "assignee_id", "u1", TypeID},
		{"status", "status", "Open", TypeStatus},
		{"priority", "priority", "High", TypePriority},
		{"severity", "severity", 3.0, TypeSeverity},
		{"tags key", "tags", "bug", TypeTag},
		{"array value", "labels", []any{"a"}, TypeTag},
		{"date in key", "due_date", "tomorrow", TypeDate},
		{"at suffix", "created_at", nil, TypeDate},
		{"email", "user_email", "a@b.c", TypeEmail},
		{"number", "count", 3.0, TypeNumber},
		{"boolean", "active", true, TypeBoolean},
		{"iso string", "opened", "2024-01-05T10:00:00Z", TypeDate},
		{"slash date", "opened", "2024/01/05", TypeDate},
		{"text", "title", "Broken login", TypeText},
		{"object", "assignee", analytics.NewRecord("name", "A"), TypeText},
		{"null", "note", nil, TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.key, tt.value))
		})
	}
}

func TestAnalyze_PlainRows(t *testing.T) {
	records := mustRecords(t, `[
		{"_id":"1","title":"Login broken","status":"Open","priority":"High","tags":["bug"],"created_at":"2024-01-01","_internal":1}
	]`)

	want := []Field{
		{Key: "_id", DisplayName: "ID", Type: TypeID, Sortable: true},
		{Key: "title", DisplayName: "Title", Type: TypeText, Sortable: true},
		{Key: "status", DisplayName: "Status", Type: TypeStatus, Sortable: true},
		{Key: "priority", DisplayName: "Priority", Type: TypePriority, Sortable: true},
		{Key: "tags", DisplayName: "Tags", Type: TypeTag, Sortable: false},
		{Key: "created_at", DisplayName: "Created At", Type: TypeDate, Sortable: true},
	}

	if diff := cmp.Diff(want, Analyze(records)); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_NestedDetail(t *testing.T) {
	records := mustRecords(t, `[
		{"_id":"bug","count":2,"tickets":[{"ticket_id":"T-1","status":"Open"},{"ticket_id":"T-2","status":"Closed"}]}
	]`)

	got := Analyze(records)
	require.Len(t, got, 3)
	assert.Equal(t, TotalCountKey, got[0].Key)
	assert.Equal(t, "Total Count", got[0].DisplayName)
	assert.Equal(t, TypeNumber, got[0].Type)
	assert.Equal(t, "ticket_id", got[1].Key)
	assert.Equal(t, TypeID, got[1].Type)
	assert.Equal(t, TypeStatus, got[2].Type)
}

func TestAnalyze_NestedDetailWithoutCount(t *testing.T) {
	records := mustRecords(t, `[{"_id":"bug","tickets":[{"title":"x"}]}]`)
	got := Analyze(records)
	require.Len(t, got, 1)
	assert.Equal(t, "title", got[0].Key)
}

func TestAnalyze_Empty(t *testing.T) {
	assert.Empty(t, Analyze(nil))
	assert.NotNil(t, Analyze(nil))
	assert.Empty(t, Analyze([]*analytics.Record{nil}))
}

func TestAnalyze_Idempotent(t *testing.T) {
	records := mustRecords(t, `[{"_id":"1","email":"a@b.c","score":4.5,"done":false}]`)
	assert.Equal(t, Analyze(records), Analyze(records))
}

func TestHasTypeAndFind(t *testing.T) {
	fs := []Field{{Key: "a", Type: TypeNumber}, {Key: "b", Type: TypeDate}}
	assert.True(t, HasType(fs, TypeDate))
	assert.False(t, HasType(fs, TypeTag))
	f, ok := Find(fs, "b")
	assert.True(t, ok)
	assert.Equal(t, TypeDate, f.Type)
}
