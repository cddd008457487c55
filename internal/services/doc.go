// Package services holds cross-cutting helpers shared by the external-tool
// adapters: the error taxonomy used for retry classification and the context
// carriage for job, stage, and attempt metadata.
package services
