package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supermarket-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/purchases", topicResourceName("p1", "purchases"))
	assert.Equal(t, "projects/p1/topics/purchases", topicResourceName("p1", "  purchases "))
	assert.Equal(t, "projects/other/topics/x", topicResourceName("p1", "projects/other/topics/x"))
	assert.Equal(t, "", topicResourceName("", "purchases"))
	assert.Equal(t, "", topicResourceName("p1", ""))
}

func TestResourceNamesDedupes(t *testing.T) {
	names, err := resourceNames("p1", []string{"purchases", " ", "projects/p1/topics/purchases", "customers"})
	require.NoError(t, err)
	assert.Equal(t, []string{"projects/p1/topics/purchases", "projects/p1/topics/customers"}, names)

	_, err = resourceNames("p1", []string{"", "  "})
	assert.ErrorIs(t, err, errNoTopics)
}

func TestNewClientValidatesBeforeDialing(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, []string{"t"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "p1"}, nil, nil)
	assert.ErrorIs(t, err, errNoTopics)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("t"))
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
	assert.Equal(t, "", c.TopicResourceName("t"))
}
