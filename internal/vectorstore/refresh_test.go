package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionChangeSetNewModifiedUnchanged(t *testing.T) {
	current := []BucketObject{
		{Name: "new.txt", ETag: "e1"},
		{Name: "changed.txt", ETag: "e2-new"},
		{Name: "same.txt", ETag: "e3"},
		{Name: "oldformat.txt", ETag: "e4"},
	}
	existing := map[string]existingFileMetadata{
		"changed.txt":   {Filename: "changed.txt", ETag: "e2-old"},
		"same.txt":      {Filename: "same.txt", ETag: "e3"},
		"oldformat.txt": {Filename: "oldformat.txt"}, // no etag/time_modified
	}

	newObjs, modified, unchanged := partitionChangeSet(current, existing)

	require.Len(t, newObjs, 1)
	require.Equal(t, "new.txt", newObjs[0].Name)

	require.Len(t, modified, 1)
	require.Equal(t, "changed.txt", modified[0].Name)

	require.Len(t, unchanged, 1)
	require.Equal(t, "same.txt", unchanged[0].Name)
}
