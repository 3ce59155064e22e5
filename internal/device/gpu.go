package device

import (
	"regexp"
	"strconv"
	"strings"
)

var adrenoModel = regexp.MustCompile(`adreno[^0-9]*([0-9]{3})`)

type gpuRule struct {
	tier  GPUTier
	match func(renderer string) bool
}

func pattern(expr string) func(string) bool {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

func adrenoAtLeast(n int) func(string) bool {
	return func(r string) bool {
		m := adrenoModel.FindStringSubmatch(r)
		if m == nil {
			return false
		}
		v, err := strconv.Atoi(m[1])
		return err == nil && v >= n
	}
}

// gpuRules is evaluated in order; the first match wins.
var gpuRules = []gpuRule{
	{GPUUltra, pattern(`nvidia.*(rtx|gtx\s*16|gtx\s*20)`)},
	{GPUUltra, pattern(`(amd|radeon).*rx\s*[56][0-9]{3}`)},
	{GPUUltra, pattern(`apple\s*m[1-3]`)},
	{GPUUltra, adrenoAtLeast(650)},
	{GPUHigh, pattern(`nvidia.*gtx`)},
	{GPUHigh, pattern(`(amd|radeon).*rx`)},
	{GPUHigh, adrenoAtLeast(600)},
	{GPUHigh, pattern(`mali-g7[0-9]`)},
	{GPUMedium, adrenoAtLeast(500)},
	{GPUMedium, pattern(`mali-g[56][0-9]`)},
	{GPUMedium, pattern(`intel.*iris`)},
	{GPUMedium, pattern(`powervr`)},
	{GPULow, adrenoAtLeast(400)},
	{GPULow, pattern(`mali`)},
}

// ClassifyGPU maps a renderer string to a tier. Unrecognized renderers are very-low.
func ClassifyGPU(renderer string) GPUTier {
	r := strings.ToLower(renderer)
	for _, rule := range gpuRules {
		if rule.match(r) {
			return rule.tier
		}
	}
	return GPUVeryLow
}

// EstimateGPU derives a tier from class and performance when the renderer is unobtainable.
func EstimateGPU(class Class, score float64) GPUTier {
	if class == ClassDesktop {
		switch {
		case score >= 0.8:
			return GPUHigh
		case score >= 0.5:
			return GPUMedium
		default:
			return GPULow
		}
	}
	switch {
	case score >= 0.85:
		return GPUHigh
	case score >= 0.6:
		return GPUMedium
	case score >= 0.35:
		return GPULow
	default:
		return GPUVeryLow
	}
}
