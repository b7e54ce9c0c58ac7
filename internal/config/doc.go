// Package config loads speechsplit configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables prefixed with SPEECHSPLIT_. Nested sections extend
// the prefix, so chunker.max_phonemes is SPEECHSPLIT_CHUNKER_MAX_PHONEMES.
//
//	segmenter:
//	  abbreviations: [mr, mrs, dr, approx]
//	chunker:
//	  max_phonemes: 510
//	  waterfall: ["!.?…", ":;", ",—"]
//	phonemizer:
//	  lexicon: /etc/speechsplit/lexicon.yaml
//	storage:
//	  db_path: /var/lib/speechsplit/journal.db
//	log:
//	  level: info
//
// The YAML path comes from WithConfigPath or SPEECHSPLIT_CONFIG.
package config
