package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotokeramika/filter"
	"fotokeramika/textlayout"
)

func TestSetPortrait_AutoFitsAndCentres(t *testing.T) {
	g := New(600, 800).SetPortrait("portrait.png", 1200, 900)
	require.True(t, g.HasPortrait())

	p := g.Portrait
	// width bound: 360/1200 = 0.3, height bound: 640/900 = 0.71
	assert.InDelta(t, 0.3, p.Scale, 1e-9)
	assert.InDelta(t, 360, p.Width(), 1e-9)
	assert.InDelta(t, 270, p.Height(), 1e-9)
	assert.InDelta(t, 120, p.X, 1e-9)
	assert.InDelta(t, 265, p.Y, 1e-9)
}

func TestSetPortrait_TallImageBoundByHeight(t *testing.T) {
	g := New(600, 800).SetPortrait("tall.png", 400, 1600)
	assert.InDelta(t, 0.4, g.Portrait.Scale, 1e-9)
	assert.LessOrEqual(t, g.Portrait.Width(), 360.0)
	assert.InDelta(t, 640, g.Portrait.Height(), 1e-9)
}

func TestSetPortrait_SmallImageKeepsNaturalSize(t *testing.T) {
	g := New(600, 800).SetPortrait("small.png", 100, 100)
	assert.Equal(t, 1.0, g.Portrait.Scale)
	assert.Equal(t, 250.0, g.Portrait.X)
	assert.Equal(t, 350.0, g.Portrait.Y)
}

func TestSetPortrait_ReplaceResetsFilters(t *testing.T) {
	g := New(600, 800).
		SetPortrait("first.png", 300, 300).
		UpdateFilter(filter.Brightness, 0.4).
		SetGrayscale(true)
	require.Len(t, g.Portrait.Filters, 2)

	replaced := g.SetPortrait("second.png", 300, 300)
	assert.Equal(t, "second.png", replaced.Portrait.ImageRef)
	assert.Empty(t, replaced.Portrait.Filters)

	again := replaced.SetPortrait("second.png", 300, 300)
	assert.Equal(t, replaced.Portrait, again.Portrait)
}

func TestSetPortrait_InvalidDimensionsIgnored(t *testing.T) {
	g := New(600, 800).SetPortrait("broken.png", 0, 100)
	assert.False(t, g.HasPortrait())
}

func TestPortraitMutationsWithoutPortraitAreNoOps(t *testing.T) {
	g := New(600, 800).SetBackground("bg.jpg")

	assert.Equal(t, g, g.UpdateFilter(filter.Contrast, 0.5))
	assert.Equal(t, g, g.SetGrayscale(true))
	assert.Equal(t, g, g.ResetFilters())
	assert.Equal(t, g, g.MovePortrait(10, 10))
	assert.Equal(t, g, g.ScalePortrait(2))
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	base := New(600, 800).SetPortrait("p.png", 300, 300)
	next := base.UpdateFilter(filter.Saturation, 2).MovePortrait(5, 6)

	assert.Empty(t, base.Portrait.Filters)
	assert.NotEqual(t, 5.0, base.Portrait.X)

	d, ok := next.Portrait.Filters.Get(filter.Saturation)
	require.True(t, ok)
	assert.Equal(t, 1.0, d.Magnitude, "magnitude is clamped")
}

func TestScalePortrait_KeepsCentre(t *testing.T) {
	g := New(600, 800).SetPortrait("p.png", 200, 200)
	cx := g.Portrait.X + g.Portrait.Width()/2
	cy := g.Portrait.Y + g.Portrait.Height()/2

	scaled := g.ScalePortrait(0.5)
	assert.Equal(t, 100.0, scaled.Portrait.Width())
	assert.InDelta(t, cx, scaled.Portrait.X+scaled.Portrait.Width()/2, 1e-9)
	assert.InDelta(t, cy, scaled.Portrait.Y+scaled.Portrait.Height()/2, 1e-9)

	assert.Equal(t, g, g.ScalePortrait(0))
	assert.Equal(t, g, g.ScalePortrait(-1))
}

func TestTextSettersRelayout(t *testing.T) {
	g := New(400, 300).
		SetBackgroundColor("#2c3e50").
		SetTextField(FieldName, "Анна").
		SetTextField(FieldBirthDate, "01.01.2000")
	require.Len(t, g.Text, 2)
	assert.Equal(t, "Arial", g.Text[0].FontFamily)
	assert.Equal(t, "#ffffff", g.Text[0].Color)

	styled := g.SetFont("Georgia").SetFontSize(30).SetTextColor("#ecf0f1")
	for _, layer := range styled.Text {
		assert.Equal(t, "Georgia", layer.FontFamily)
		assert.Equal(t, "#ecf0f1", layer.Color)
	}
	assert.Equal(t, 34.0, styled.Text[0].FontSize)

	assert.Equal(t, float64(MaxFontSize), g.SetFontSize(500).Style.BaseFontSize)
	assert.Equal(t, float64(MinFontSize), g.SetFontSize(1).Style.BaseFontSize)
	assert.Equal(t, "#ffffff", g.SetTextColor("not a colour").Style.Color)

	cleared := g.SetTextField(FieldName, "")
	require.Len(t, cleared.Text, 1)
	assert.Equal(t, textlayout.SlotDates, cleared.Text[0].Slot)

	assert.Equal(t, g, g.SetTextField("unknown", "x"))
}

func TestRender_PaintOrder(t *testing.T) {
	g := New(400, 300).
		SetBackgroundColor("#2c3e50").
		SetBackground("bg.jpg").
		SetTextField(FieldEpitaph, "Помним").
		SetTextField(FieldName, "Анна").
		SetTextField(FieldDeathDate, "2024").
		SetPortrait("p.png", 100, 100).
		SetGrayscale(true)

	ops := g.Render()
	require.Len(t, ops, 6)

	assert.Equal(t, OpFill, ops[0].Kind)
	assert.Equal(t, "#2c3e50", ops[0].Color)
	assert.Equal(t, OpImage, ops[1].Kind)
	assert.Equal(t, LayerBackground, ops[1].Layer)
	assert.Equal(t, 400.0, ops[1].Width)
	assert.Equal(t, 300.0, ops[1].Height)

	assert.Equal(t, LayerPortrait, ops[2].Layer)
	assert.Equal(t, "grayscale", ops[2].Filters.Fingerprint())

	var slots []textlayout.Slot
	for _, op := range ops[3:] {
		assert.Equal(t, OpText, op.Kind)
		slots = append(slots, op.Text.Slot)
	}
	assert.Equal(t, []textlayout.Slot{textlayout.SlotName, textlayout.SlotDates, textlayout.SlotEpitaph}, slots)
	assert.Equal(t, " - 2024", ops[4].Text.Content)
}

func TestRender_EmptyGraph(t *testing.T) {
	assert.Empty(t, New(600, 800).Render())
}
