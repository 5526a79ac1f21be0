package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestLinkExternalAccountUpdate(t *testing.T) {
	t.Parallel()

	// Values that look like field paths must stay inert literals.
	pipeline := linkExternalAccountUpdate("$external_id", "$avatar_url")
	require.Len(t, pipeline, 1)

	stage := pipeline[0]
	require.Len(t, stage, 1)
	require.Equal(t, "$set", stage[0].Key)

	set, ok := stage[0].Value.(bson.M)
	require.True(t, ok)

	assert.Equal(t, bson.M{"$literal": "$external_id"}, set["external_id"])
	assert.Equal(t, true, set["is_email_verified"])

	ifNull, ok := set["avatar_url"].(bson.M)
	require.True(t, ok)
	args, ok := ifNull["$ifNull"].(bson.A)
	require.True(t, ok)
	require.Len(t, args, 2)
	assert.Equal(t, "$avatar_url", args[0])
	assert.Equal(t, bson.M{"$literal": "$avatar_url"}, args[1])
}
