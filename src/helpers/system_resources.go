package helpers

// RecommendedMemoryLimitMB returns how much memory the process should plan
// around: three quarters of physical RAM, floored at 512MB on hosts that
// have that much. Used to warn when the configured cache budget cannot fit.
func RecommendedMemoryLimitMB() int {
	totalMB := TotalSystemMemoryMB()
	if totalMB == 0 {
		// Unknown host memory, assume a small box.
		return 512
	}

	limit := totalMB * 3 / 4
	if limit >= 512 {
		return limit
	}
	if totalMB < 512 {
		return totalMB
	}
	return 512
}
