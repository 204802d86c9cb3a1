// Package report turns benchmark samples into telemetry documents and
// stores them in a monthly index through the bulk API.
//
// Samples are submitted in batches of at most BatchSize documents, one
// bulk request per batch, strictly in order. A batch whose response carries
// the errors flag, or any item status above 201, fails with *ReportError
// and no further batches are sent.
package report
