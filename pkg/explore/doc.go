// Package explore searches a knowledge base for a relation path between two
// entities.
//
// An Engine hands out Sessions. Each Session starts at the source entity,
// looks up its outgoing links and, for every new entity within the hop
// budget, schedules the same expansion on a bounded utils.TaskPool. Entities
// are admitted to the frontier once per session (VisitedSet) and the search
// stops as soon as any expansion reaches the target (Signal), or when the
// pool runs out of work. The path is then read from the explored graph with
// ExtractPath.
//
// Hop distances are measured on the explored graph at the moment an entity
// is admitted. An entity at exactly the hop budget is recorded but never
// expanded, so every vertex of the explored graph lies within the budget.
package explore
