package game

import (
	"math"
	"math/rand"
	"testing"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{4000, 4000},
		{8000, 8000},
		{99999, 8000},
		{math.NaN(), 0},
		{math.Inf(1), 8000},
		{math.Inf(-1), 0},
	}
	for _, c := range cases {
		if got := Clamp(c.in, 0, DefaultMapSize); got != c.want {
			t.Fatalf("Clamp(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	for _, a := range []float64{0, 1, -1, 3 * math.Pi, -3 * math.Pi, 100, math.NaN()} {
		got := NormalizeAngle(a)
		if got <= -math.Pi || got > math.Pi {
			t.Fatalf("NormalizeAngle(%v) = %v out of range", a, got)
		}
	}
}

func TestRandomPointInsideMargins(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		x, y := RandomPoint(rng, DefaultMapSize, SpawnMargin)
		if x < SpawnMargin || x > DefaultMapSize-SpawnMargin || y < SpawnMargin || y > DefaultMapSize-SpawnMargin {
			t.Fatalf("point (%v, %v) outside margins", x, y)
		}
	}
}

func TestRingPointsClampedIntoMap(t *testing.T) {
	pts := RingPoints(10, 10, 120, 8, DefaultMapSize)
	if len(pts) != 8 {
		t.Fatalf("got %d points, want 8", len(pts))
	}
	for _, p := range pts {
		if !InBounds(p[0], p[1], DefaultMapSize) {
			t.Fatalf("ring point %v outside map", p)
		}
	}
}

func TestRollLootCountsAndGuarantee(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, r := range append(append([]Rarity{}, NPCRarities...), Boss) {
		s := MustStats(r)
		for i := 0; i < 50; i++ {
			drops := RollLoot(rng, r)
			if len(drops) != s.LootCount {
				t.Fatalf("%s: %d drops, want %d", r, len(drops), s.LootCount)
			}
			if s.GuaranteeTop && drops[0] != PowerOmega {
				t.Fatalf("%s: first drop %q, want omega", r, drops[0])
			}
			for _, d := range drops {
				if !d.Valid() {
					t.Fatalf("%s: invalid drop %q", r, d)
				}
			}
		}
	}
	if got := len(RollLoot(rng, Boss)); got != 8 {
		t.Fatalf("boss drops %d, want 8", got)
	}
}

func TestRollLootDeterministic(t *testing.T) {
	a := RollLoot(rand.New(rand.NewSource(42)), Epic)
	b := RollLoot(rand.New(rand.NewSource(42)), Epic)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed gave %v and %v", a, b)
		}
	}
}

func TestRandomPowerOmegaChance(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		if p := RandomPower(rng, 0); p == PowerOmega || !p.Valid() {
			t.Fatalf("omega chance 0 produced %q", p)
		}
		if p := RandomPower(rng, 1); p != PowerOmega {
			t.Fatalf("omega chance 1 produced %q", p)
		}
	}
}

func TestNPCDamageKillsOnce(t *testing.T) {
	n := NewNPC("n1", Slot{Rarity: Common}, 100, 100)
	if n.Damage(10) {
		t.Fatalf("non-lethal hit reported a kill")
	}
	if n.Health != 40 {
		t.Fatalf("health = %v, want 40", n.Health)
	}
	if !n.Damage(1000) {
		t.Fatalf("lethal hit did not report a kill")
	}
	if n.Health != 0 || n.Phase != Dead {
		t.Fatalf("after kill: health %v phase %v", n.Health, n.Phase)
	}
	if n.Damage(5) {
		t.Fatalf("hit on a dead npc reported a second kill")
	}
}

func TestSteerChaseStopsAtCloseRange(t *testing.T) {
	n := NewNPC("n1", Slot{Rarity: Common}, 1000, 1000)
	n.Steer(1020, 1000, 20, n.Stats.Speed, DefaultMapSize)
	if n.X != 1000 || n.Y != 1000 {
		t.Fatalf("npc moved inside close range: (%v, %v)", n.X, n.Y)
	}
	n.Steer(2000, 1000, 1000, n.Stats.Speed, DefaultMapSize)
	if math.Abs(n.X-1004) > 1e-9 {
		t.Fatalf("x = %v, want 1004", n.X)
	}
}

func TestSteerFleesWithinRadius(t *testing.T) {
	n := NewNPC("l1", Slot{Rarity: Legendary}, 1000, 1000)
	n.Steer(1100, 1000, 100, n.Stats.Speed, DefaultMapSize)
	if n.X >= 1000 {
		t.Fatalf("legendary did not flee: x = %v", n.X)
	}
	x := n.X
	n.Steer(x+FleeRadius+100, 1000, FleeRadius+100, n.Stats.Speed, DefaultMapSize)
	if n.X != x {
		t.Fatalf("legendary moved with target outside flee radius")
	}
}

func TestSteerClampsToMap(t *testing.T) {
	n := NewNPC("l1", Slot{Rarity: Legendary}, 1, 1)
	n.Steer(50, 50, 70, 100, DefaultMapSize)
	if !InBounds(n.X, n.Y, DefaultMapSize) {
		t.Fatalf("npc left the map: (%v, %v)", n.X, n.Y)
	}
}

func TestAttackReadyCadence(t *testing.T) {
	n := NewNPC("b", Slot{Rarity: Boss}, 0, 0)
	fired := 0
	for i := 0; i < 45; i++ {
		if n.AttackReady() {
			fired++
		}
	}
	if fired != 3 {
		t.Fatalf("boss attacked %d times in 45 ticks, want 3", fired)
	}
}

func TestProjectileAdvance(t *testing.T) {
	p := &Projectile{X: 100, Y: 100, VX: 10, TTL: 2}
	if !p.Advance(DefaultMapSize) {
		t.Fatalf("projectile died early")
	}
	if p.Advance(DefaultMapSize) {
		t.Fatalf("projectile outlived its ttl")
	}
	q := &Projectile{X: 5, Y: 5, VX: -10, TTL: 60}
	if q.Advance(DefaultMapSize) {
		t.Fatalf("projectile outside the map still live")
	}
}

func TestLimitSpeed(t *testing.T) {
	vx, vy := LimitSpeed(300, 400, MaxProjectileSpeed)
	if s := math.Hypot(vx, vy); math.Abs(s-MaxProjectileSpeed) > 1e-9 {
		t.Fatalf("speed %v, want %v", s, MaxProjectileSpeed)
	}
	if vx, vy := LimitSpeed(3, 4, MaxProjectileSpeed); vx != 3 || vy != 4 {
		t.Fatalf("slow projectile changed: (%v, %v)", vx, vy)
	}
}

func TestDefaultPopulation(t *testing.T) {
	counts := map[Rarity]int{}
	for _, s := range DefaultPopulation() {
		counts[s.Rarity]++
	}
	want := map[Rarity]int{Common: 12, Uncommon: 8, Rare: 5, Epic: 3, Legendary: 1, Boss: 2}
	for r, n := range want {
		if counts[r] != n {
			t.Fatalf("%s slots = %d, want %d", r, counts[r], n)
		}
	}
}

func TestStatusFor(t *testing.T) {
	if s, ok := StatusFor(PowerRapidFire); !ok || s != StatusRapidFire {
		t.Fatalf("rapidFire -> %q %v", s, ok)
	}
	for _, p := range []PowerType{PowerHeal, PowerFreeze, PowerOmega} {
		if _, ok := StatusFor(p); ok {
			t.Fatalf("%s should not grant a status", p)
		}
	}
}
