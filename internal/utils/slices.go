package utils

// Values 把指针切片展开为值切片，repository 返回指针而核心包接收值
func Values[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out
}
