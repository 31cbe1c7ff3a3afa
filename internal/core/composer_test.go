package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeContextOrder(t *testing.T) {
	got := ComposeContext([]string{"Phở Thìn: phở bò tái lăn", " ", "Phở 10 Lý Quốc Sư"}, "1. Phở Thìn — 13 Lò Đúc (≈ 250 m) | Categories: Vietnamese Restaurant", "phở ngon ở đâu?")
	want := "Thông tin tham khảo từ cơ sở dữ liệu:\n" +
		"- Phở Thìn: phở bò tái lăn\n" +
		"- Phở 10 Lý Quốc Sư\n\n" +
		"Các quán ăn gần đây:\n" +
		"1. Phở Thìn — 13 Lò Đúc (≈ 250 m) | Categories: Vietnamese Restaurant\n\n" +
		"Câu hỏi của người dùng: phở ngon ở đâu?"
	assert.Equal(t, want, got)
}

func TestComposeContextOmitsEmptySections(t *testing.T) {
	assert.Equal(t, "Câu hỏi của người dùng: ăn gì?", ComposeContext(nil, "", "ăn gì?"))
	assert.Equal(t,
		"Các quán ăn gần đây:\nNo restaurants found.\n\nCâu hỏi của người dùng: ăn gì?",
		ComposeContext([]string{}, "No restaurants found.", "ăn gì?"))
}
