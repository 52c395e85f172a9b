// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to a vector (Ollama, OpenAI-compatible)
//   - GenerationBackend: Produces a completion from chat messages
//   - TableStore: Reads and atomically replaces the persisted embedding table
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - Normaliser / NormaliserRegistry: Turn files into plain text for indexing
//   - PostProcessor / PostProcessorPipeline: Split documents into chunks
//   - PromptStore: Prompt templates for generation
//   - AIConfigValidator: Connectivity checks for the settings command
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
