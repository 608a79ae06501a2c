package game

// BossType is one entry of the boss roster
type BossType struct {
	ID         string
	Name       string
	BaseHealth float64
}

// Bosses is the roster, cycled in order as levels go up
var Bosses = []BossType{
	{ID: "saucer", Name: "Saucer", BaseHealth: 60},
	{ID: "klingon", Name: "Raider", BaseHealth: 80},
	{ID: "sentinel", Name: "Sentinel", BaseHealth: 70},
}

// PickBoss returns the boss guarding a level. Levels below 1 count as 1.
func PickBoss(level int) *BossType {
	if level < 1 {
		level = 1
	}
	return &Bosses[(level-1)%len(Bosses)]
}

// BossHealth scales a boss up every time the roster wraps around
func BossHealth(b *BossType, level int) float64 {
	if level < 1 {
		level = 1
	}
	round := (level - 1) / len(Bosses)
	return b.BaseHealth * (1 + 0.5*float64(round))
}
