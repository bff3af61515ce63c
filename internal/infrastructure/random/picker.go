package random

import (
	"math/rand/v2"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// UniformPicker draws categories uniformly from domain.Categories.
type UniformPicker struct {
	intn func(n int) int
}

func NewUniformPicker() *UniformPicker {
	return &UniformPicker{intn: rand.IntN}
}

// NewSeededPicker is reproducible for a given seed. Not safe for concurrent use.
func NewSeededPicker(seed uint64) *UniformPicker {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &UniformPicker{intn: rng.IntN}
}

func (p *UniformPicker) Pick() domain.Category {
	return domain.Categories[p.intn(len(domain.Categories))]
}
