// Package barrace stores timestamped named measurements and turns them into
// the ranked keyframes a bar chart race animates.
//
// A Builder writes types.Record values to a storage.Storage and reads them
// back as keyframe.Keyframe values, one per distinct date plus optional
// interpolated frames between dates.
package barrace
