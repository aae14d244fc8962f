package game

import (
	"math"
	"math/rand"
)

// Clamp 将 v 限制在 [lo, hi]，NaN 视为 lo
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampToMap 将点的两个坐标限制在 [0, size]
func ClampToMap(x, y, size float64) (float64, float64) {
	return Clamp(x, 0, size), Clamp(y, 0, size)
}

func InBounds(x, y, size float64) bool {
	return x >= 0 && x <= size && y >= 0 && y <= size
}

func Distance(ax, ay, bx, by float64) float64 {
	return math.Hypot(bx-ax, by-ay)
}

// NormalizeAngle 将弧度角归一到 (-pi, pi]
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// RandomPoint 在地图内（四周留 margin）均匀随机取点
func RandomPoint(rng *rand.Rand, size, margin float64) (float64, float64) {
	span := size - 2*margin
	if span <= 0 {
		return size / 2, size / 2
	}
	return margin + rng.Float64()*span, margin + rng.Float64()*span
}

// RingPoints 在以 (cx, cy) 为圆心的圆上均匀取 n 个点，并限制在地图内
func RingPoints(cx, cy, radius float64, n int, size float64) [][2]float64 {
	out := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x, y := ClampToMap(cx+math.Cos(a)*radius, cy+math.Sin(a)*radius, size)
		out = append(out, [2]float64{x, y})
	}
	return out
}

func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
