package calculator

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/backend/internal/models"
)

func TestSimplify_Golden(t *testing.T) {
	transfers := Simplify([]models.NetBalance{
		nb("bob", 175),
		nb("alice", -100),
		nb("carol", -50),
		nb("dave", -25),
	})

	data, err := json.MarshalIndent(transfers, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "star_reduction", data)
}
