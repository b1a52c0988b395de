package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTeacherCode(t *testing.T) {
	cases := []struct {
		name     string
		fullName string
		existing []string
		want     string
	}{
		{name: "first and surname", fullName: "Ada Lovelace", want: "ALE"},
		{name: "middle names ignored", fullName: "Mary Ann Evans", want: "MES"},
		{name: "next surname letter on clash", fullName: "Ada Lovelace", existing: []string{"ALE"}, want: "AOE"},
		{name: "case insensitive clash", fullName: "ada lovelace", existing: []string{"ale", "aoe"}, want: "AVE"},
		{name: "single name uses itself as surname", fullName: "Plato", want: "PPO"},
		{name: "short surname pads attempts", fullName: "Li Wu", existing: []string{"LWU", "LUU"}, want: "LWU1"},
		{name: "numeric fallback", fullName: "Al Bo", existing: []string{"ABO", "AOO"}, want: "ABO1"},
		{name: "blank name", fullName: "  ", existing: []string{"T1"}, want: "T2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateTeacherCode(tc.fullName, tc.existing))
		})
	}
}
