// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT)
// algorithm and its indirect-encoding variant HyperNEAT, built to evolve control policies for
// a fixed set of autonomous agents.
//
// Genomes grow hidden nodes and links through mutation, are aligned by innovation numbers for
// crossover, and are clustered into species by compatibility distance. Each species shares
// fitness among its members, is culled every generation and is removed once it stops improving.
// With the hyperneat algorithm every agent carries a CPPN, a small genome that paints the link
// weights of a fixed three-layer substrate.
//
// The environment drives a run through four calls: evaluate an agent, report its fitness,
// ask for its species color, and advance the generation.
//
// Basic usage:
//
//	// Load configuration
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a population for agents 0..99 (nn picks the encoding from [NEAT] algorithm)
//	pop, err := nn.NewPopulation(config, agentIDs)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		for _, id := range pop.AgentIDs() {
//			action, _ := pop.Evaluate(id, vision(id))
//			_ = pop.ReportFitness(id, play(id, action))
//		}
//		if _, err := pop.AdvanceGeneration(); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//	}
package neat
