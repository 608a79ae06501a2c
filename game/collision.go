package game

// resolveCollisions rebuilds the broad phase and runs the exact test on
// every candidate pair once
func (w *World) resolveCollisions() {
	w.hash.Clear()
	for _, e := range w.Entities {
		if e.Active {
			w.hash.InsertCircle(e, e.Radius)
		}
	}

	// Track which pairs we've already checked; a pair spanning several
	// cells comes back once per shared cell
	clear(w.checked)

	for _, e := range w.Entities {
		if !e.Active {
			continue
		}
		w.near = w.hash.AppendQueryCircle(w.near[:0], e.X, e.Y, e.Radius)
		for _, other := range w.near {
			if other == e || !other.Active {
				continue
			}
			key := pairKey(e, other)
			if w.checked[key] {
				continue
			}
			w.checked[key] = true

			if e.IsColliding(other) {
				w.HandleCollision(e, other)
			}
			if !e.Active {
				break
			}
		}
	}
	clear(w.near)
}

func pairKey(a, b *Entity) [2]uint64 {
	if a.ID < b.ID {
		return [2]uint64{a.ID, b.ID}
	}
	return [2]uint64{b.ID, a.ID}
}

// HandleCollision applies the outcome of two entities touching
func (w *World) HandleCollision(e1, e2 *Entity) {
	// Order the pair so each case is only written once
	if e1.Kind > e2.Kind {
		e1, e2 = e2, e1
	}
	switch {
	case e1.Kind == KindPlayer && e2.Kind == KindAsteroid:
		if !w.Invulnerable() {
			w.destroyAsteroid(e2)
		}
		w.hitPlayer()
	case e1.Kind == KindPlayer && e2.Kind == KindBullet:
		if e2.Owner == KindBoss && !w.Invulnerable() {
			e2.Active = false
			w.hitPlayer()
		}
	case e1.Kind == KindPlayer && e2.Kind == KindBoss:
		w.hitPlayer()
	case e1.Kind == KindPlayer && e2.Kind == KindPowerup:
		w.collectPowerup(e2)
	case e1.Kind == KindAsteroid && e2.Kind == KindBullet:
		if e2.Owner == KindPlayer {
			e2.Active = false
			w.destroyAsteroid(e1)
		}
	case e1.Kind == KindBullet && e2.Kind == KindBoss:
		if e1.Owner == KindPlayer {
			w.HandleBossHit(e1, e2)
		}
	}
}

// HandleBossHit damages the boss with a player bullet
func (w *World) HandleBossHit(bullet, boss *Entity) {
	bullet.Active = false
	boss.Health -= w.Config.BulletDamage
	w.State.Burst(w.rng, bullet.X, bullet.Y, 6, 120, colorBoss)
	if boss.Health <= 0 {
		w.defeatBoss(boss)
	}
}
