package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewSpaceValidation(t *testing.T) {
	_, err := NewSpace(nil)
	assert.Error(t, err)

	_, err = NewSpace([]string{"joy", ""})
	assert.Error(t, err)

	_, err = NewSpace([]string{"joy", "anger", "joy"})
	assert.Error(t, err)
}

func Test_OneHotRoundTrip(t *testing.T) {
	space := MustSpace([]string{"joy", "anger", "fear"})

	// decode(encode(l)) == {space[l]} for every valid class id
	for classID := 0; classID < space.Len(); classID++ {
		vec, err := space.OneHot(classID)
		require.NoError(t, err)
		require.Len(t, vec, space.Len())

		decoded, err := space.Decode(vec, 0.5)
		require.NoError(t, err)

		name, err := space.Name(classID)
		require.NoError(t, err)
		assert.Equal(t, []string{name}, decoded, "class id %d", classID)
	}
}

func Test_OneHotOutOfRange(t *testing.T) {
	space := MustSpace([]string{"joy", "anger", "fear"})

	_, err := space.OneHot(-1)
	assert.Error(t, err)

	_, err = space.OneHot(3)
	assert.Error(t, err)
}

func Test_MultiHotByName(t *testing.T) {
	space := MustSpace([]string{"joy", "anger", "fear"})

	vec, err := space.MultiHot([]string{"fear", "joy"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 1}, vec)

	// names never present in the space must fail, not silently zero-pad
	_, err = space.MultiHot([]string{"ennui"})
	assert.Error(t, err)
}

func Test_DecodeScenario(t *testing.T) {
	space := MustSpace([]string{"joy", "anger", "fear"})

	vec, err := space.OneHot(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, vec)

	decoded, err := space.Decode([]float32{0.2, 0.9, 0.4}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"anger"}, decoded)
}

func Test_DecodeStrictThreshold(t *testing.T) {
	space := MustSpace([]string{"joy", "anger", "fear"})

	// ties at exactly the threshold are excluded
	decoded, err := space.Decode([]float32{0.5, 0.5, 0.5}, 0.5)
	require.NoError(t, err)
	assert.Empty(t, decoded)

	decoded, err = space.Decode([]float32{0.500001, 0.5, 0.1}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"joy"}, decoded)
}

func Test_DecodeMultiLabel(t *testing.T) {
	space := MustSpace([]string{"joy", "anger", "fear"})

	decoded, err := space.Decode([]float32{0.9, 0.8, 0.1}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"joy", "anger"}, decoded)
}

func Test_DecodeWidthMismatch(t *testing.T) {
	space := MustSpace([]string{"joy", "anger", "fear"})

	_, err := space.Decode([]float32{0.1, 0.2}, 0.5)
	assert.Error(t, err)
}

func Test_GoEmotionsWidth(t *testing.T) {
	assert.Equal(t, 28, GoEmotions.Len())
	assert.Equal(t, 7, Ekman.Len())

	// every GoEmotions category has an Ekman group, and every group exists
	for _, name := range GoEmotions.Names() {
		mapped, ok := GoEmotionsToEkman[name]
		require.True(t, ok, "category %s has no Ekman mapping", name)
		_, ok = Ekman.Index(mapped)
		require.True(t, ok, "mapped category %s missing from Ekman space", mapped)
	}
}

func Test_ProjectByName(t *testing.T) {
	vec, err := GoEmotions.MultiHot([]string{"amusement", "annoyance"})
	require.NoError(t, err)

	projected, err := GoEmotions.Project(vec, Ekman, GoEmotionsToEkman)
	require.NoError(t, err)
	require.Len(t, projected, Ekman.Len())

	decoded, err := Ekman.Decode(projected, 0.5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"joy", "anger"}, decoded)
}

func Test_ProjectUnmapped(t *testing.T) {
	src := MustSpace([]string{"weird"})
	_, err := src.Project([]float32{1}, Ekman, map[string]string{})
	assert.Error(t, err)
}
