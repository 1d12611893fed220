package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
	}{
		{"recommend a laptop under 3000", Recommendation("laptop", "3000")},
		{"Recommend a CAMERA for $500", Recommendation("camera", "500")},
		{"which is better for me, a tablet or a watch?", Recommendation("tablet", "")},
		{"推荐2024年最新手机，预算2000-4000元", Recommendation("手机", "2000")},
		{"推荐2024年最新热门商品，预算3000元以内", Recommendation("", "3000")},
		{"买什么耳机好，800块左右", Recommendation("耳机", "800")},
		{"recommend headphones under 500 yuan", Recommendation("headphones", "500")},
		{"choose a smartphone", Recommendation("phone", "")},
		{"iPhone 15最新价格对比", PriceComparison("iPhone 15最新")},
		{"Sony WH-1000XM5 price", PriceComparison("Sony WH-1000XM5")},
		{"how much is the sony camera", PriceComparison("")},
		{"is there anything cheap?", PriceComparison("is there anything")},
		{"hello there", General()},
		{"2024年有哪些值得关注的新品？", General()},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestClassifyRecommendationWinsOverPrice(t *testing.T) {
	got := Classify("recommend a phone with a good price")
	assert.Equal(t, KindRecommendation, got.Kind)
	assert.Equal(t, "phone", got.Category)

	got = Classify("对比价格后推荐一款相机")
	assert.Equal(t, KindRecommendation, got.Kind)
	assert.Equal(t, "相机", got.Category)
}

func TestClassifyIsDeterministic(t *testing.T) {
	in := "Which is better: laptop or computer, budget 6000 dollars"
	first := Classify(in)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify(in))
	}
	assert.Equal(t, Recommendation("computer", "6000"), first)
}

func TestHint(t *testing.T) {
	assert.Empty(t, Hint(""))
	assert.Contains(t, Hint("推荐手机"), "2024年最新")
	assert.Contains(t, Hint("iPhone价格"), "最新价格")
	assert.Contains(t, Hint("推荐2024年最新手机"), "预算")
	assert.Contains(t, Hint("recommend a laptop"), "budget")
	assert.Empty(t, Hint("recommend a laptop under 3000"))
}
