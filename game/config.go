package game

// Config holds game tuning constants
type Config struct {
	// ScreenWidth is the playfield width in pixels
	ScreenWidth int

	// ScreenHeight is the playfield height in pixels
	ScreenHeight int

	// CellSize is the size of each spatial hash cell in pixels
	CellSize float64

	// Player ship
	PlayerRadius   float64
	PlayerAccel    float64 // pixels per second squared
	PlayerMaxSpeed float64 // pixels per second
	PlayerDrag     float64 // fraction of velocity kept per second
	StartLives     int
	InvulnTime     float64 // seconds of invulnerability after a respawn

	// Bullets
	BulletSpeed    float64
	BulletLifetime float64
	BulletRadius   float64
	BulletDamage   float64
	FireCooldown   float64
	MaxBullets     int

	// Asteroids
	AsteroidRadius    float64 // radius of a fresh asteroid; halves on every split
	AsteroidMinRadius float64 // asteroids smaller than this do not split
	AsteroidSpeed     float64
	WaveBase          int // asteroids in the first wave
	WavePerLevel      int // extra asteroids per level

	// Bosses
	BossInterval     int // a boss guards every n-th level
	BossRadius       float64
	BossFireCooldown float64
	BossBulletSpeed  float64

	// Powerups
	PowerupChance   float64 // chance an asteroid leaves a powerup
	PowerupLifetime float64
	SlowDuration    float64
	SlowFactor      float64 // speed multiplier for asteroids while slowed
	ShieldDuration  float64
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		ScreenWidth:  1280,
		ScreenHeight: 720,
		CellSize:     80.0,

		PlayerRadius:   14.0,
		PlayerAccel:    900.0,
		PlayerMaxSpeed: 360.0,
		PlayerDrag:     0.35,
		StartLives:     3,
		InvulnTime:     2.0,

		BulletSpeed:    620.0,
		BulletLifetime: 1.1,
		BulletRadius:   3.0,
		BulletDamage:   10.0,
		FireCooldown:   0.16,
		MaxBullets:     96,

		AsteroidRadius:    40.0,
		AsteroidMinRadius: 14.0,
		AsteroidSpeed:     70.0,
		WaveBase:          4,
		WavePerLevel:      2,

		BossInterval:     1,
		BossRadius:       48.0,
		BossFireCooldown: 1.4,
		BossBulletSpeed:  300.0,

		PowerupChance:   0.12,
		PowerupLifetime: 8.0,
		SlowDuration:    5.0,
		SlowFactor:      0.4,
		ShieldDuration:  6.0,
	}
}

// BossLevel reports whether a boss guards the given level
func (c Config) BossLevel(level int) bool {
	if c.BossInterval <= 0 {
		return false
	}
	return level%c.BossInterval == 0
}

// WaveSize returns how many asteroids open the given level
func (c Config) WaveSize(level int) int {
	return max(1, c.WaveBase+(level-1)*c.WavePerLevel)
}
