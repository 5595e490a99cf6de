package testsupport

// FakeFFmpeg stands in for ffmpeg. Annotation calls write a one-line marker
// naming the input to the output path. Concat calls write the manifest's
// file paths, one per line, so tests can assert the compilation order.
const FakeFFmpeg = `#!/bin/sh
prev=""
in=""
out=""
concat=0
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then in="$arg"; fi
  if [ "$prev" = "-f" ] && [ "$arg" = "concat" ]; then concat=1; fi
  prev="$arg"
  out="$arg"
done
if [ "$concat" = 1 ]; then
  sed -n "s/^file '\(.*\)'$/\1/p" "$in" > "$out"
else
  printf 'annotated %s\n' "$in" > "$out"
fi
`

// FailingFFmpeg writes partial output, complains on stderr and exits 1.
const FailingFFmpeg = `#!/bin/sh
for last; do :; done
printf 'partial' > "$last"
echo "Error while processing: Invalid data found when processing input" >&2
exit 1
`

// FailingConcatFFmpeg annotates like FakeFFmpeg but fails every concat call
// without producing output.
const FailingConcatFFmpeg = `#!/bin/sh
prev=""
in=""
out=""
for arg in "$@"; do
  if [ "$prev" = "-f" ] && [ "$arg" = "concat" ]; then
    echo "concat demuxer failed" >&2
    exit 1
  fi
  if [ "$prev" = "-i" ]; then in="$arg"; fi
  prev="$arg"
  out="$arg"
done
printf 'annotated %s\n' "$in" > "$out"
`
