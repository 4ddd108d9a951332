package web

const indexTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Soundboard</title>
  <style>
    body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; }
    .flash { padding: .5rem 1rem; border-radius: 4px; }
    .flash.success { background: #d4f8dd; }
    .flash.error { background: #fbd5d5; }
  </style>
</head>
<body>
  <h1>Soundboard</h1>
  {{with .Flash}}<p class="flash {{.Kind}}">{{.Message}}</p>{{end}}
  <form action="/upload" method="post" enctype="multipart/form-data">
    <p><label>Name <input type="text" name="name" maxlength="100" required></label></p>
    <p><label>MP3 file <input type="file" name="file" accept=".mp3,audio/mpeg" required></label></p>
    <p><button type="submit">Upload</button></p>
  </form>
  <h2>Sounds</h2>
  {{if .Sounds}}
  <ul>
    {{range .Sounds}}<li>{{.}}</li>
    {{end}}
  </ul>
  {{else}}
  <p>No sounds yet.</p>
  {{end}}
</body>
</html>
`
