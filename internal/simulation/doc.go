// Package simulation builds a belief-diffusion network from a Configuration,
// plays it for a fixed number of rounds and reports the terminal census.
//
// A Simulation draws every random number from the *rand.Rand handed to New,
// so two simulations built from the same configuration and the same seed
// produce the same Result:
//
//	rng := rand.New(rand.NewSource(45))
//	sim, err := simulation.New(cfg, rng)
//	if err != nil {
//	    return err
//	}
//	res := sim.Run()
//	if prop, ok := res.ProportionTrueBeliefs(); ok {
//	    fmt.Printf("%.4f of believers hold the truth\n", prop)
//	}
package simulation
