package bitwarden

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetItem_ExtractsStringFields(t *testing.T) {
	c, r := newTestClient(map[string]scripted{
		"get item id-1": {stdout: `{
			"id": "id-1",
			"name": "foo",
			"fields": [
				{"name": "cf_account_id", "value": "A", "type": 0},
				{"name": "cf_api_token", "value": "T", "type": 1},
				{"name": "flag", "value": true},
				{"name": null, "value": "x"},
				{"value": "no-name"},
				42,
				"junk",
				null,
				{"name": "cf_account_id", "value": "A2"}
			]
		}`},
	})

	item, err := c.GetItem(context.Background(), "sess", "id-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cf_account_id": "A2", "cf_api_token": "T"}, item.FieldMap())

	calls := r.called("get item id-1")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"BW_SESSION=sess"}, calls[0].Env)
}

func TestGetItem_NoFields(t *testing.T) {
	c, _ := newTestClient(map[string]scripted{
		"get item id-1": {stdout: `{"id":"id-1","fields":null}`},
	})

	item, err := c.GetItem(context.Background(), "sess", "id-1")
	require.NoError(t, err)
	assert.Empty(t, item.FieldMap())
}

func TestGetItem_InvalidJSONNeverQuotesContent(t *testing.T) {
	c, _ := newTestClient(map[string]scripted{
		"get item id-1": {stdout: `{"fields":[{"name":"cf_api_token","value":"s3cr3t"}] trailing`},
	})

	_, err := c.GetItem(context.Background(), "sess", "id-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON from bw get item")
	assert.NotContains(t, err.Error(), "s3cr3t")
	assert.NotContains(t, err.Error(), "trailing")
}

func TestGetItem_FieldsNotAList(t *testing.T) {
	c, _ := newTestClient(map[string]scripted{
		"get item id-1": {stdout: `{"fields":"s3cr3t"}`},
	})

	_, err := c.GetItem(context.Background(), "sess", "id-1")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cr3t")
}

func TestListItems_NotAList(t *testing.T) {
	c, _ := newTestClient(map[string]scripted{
		"list items --search foo": {stdout: `{"id":"x"}`},
	})

	_, err := c.ListItems(context.Background(), "sess", "foo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bw list items")
}

func TestRun_StderrSnippetIsTruncated(t *testing.T) {
	c, _ := newTestClient(map[string]scripted{
		"list items --search foo": {code: 2, stderr: strings.Repeat("e", 2000)},
	})

	_, err := c.ListItems(context.Background(), "sess", "foo")
	require.Error(t, err)
	prefix := "bw list items --search foo failed (rc=2): "
	require.True(t, strings.HasPrefix(err.Error(), prefix))
	assert.Len(t, strings.TrimPrefix(err.Error(), prefix), 500)
}

func TestRun_NoSnippetWhenStderrEmpty(t *testing.T) {
	c, _ := newTestClient(map[string]scripted{
		"unlock --raw": {code: 1},
	})

	_, err := c.Unlock(context.Background())
	require.Error(t, err)
	assert.Equal(t, "bw unlock --raw failed (rc=1)", err.Error())
}

func TestProvider(t *testing.T) {
	c, _ := newTestClient(map[string]scripted{
		"list items --search foo": {stdout: `[{"id":"id-1","name":"foo"},{"id":"id-2","name":"foo-old"}]`},
		"get item id-1":           {stdout: `{"fields":[{"name":"a","value":"1"}]}`},
	})
	p := NewProvider(c, "sess")

	ids, err := p.ListSecrets(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1", "id-2"}, ids)

	fields, err := p.GetSecret(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, fields)
}
