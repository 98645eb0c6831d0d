package server

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>mirage</title>
<style>
body { font-family: monospace; max-width: 64rem; margin: 2rem auto; background: #111; color: #ddd; }
a { color: #8cf; }
fieldset { border: 1px solid #444; margin-bottom: 1rem; }
input, select { background: #222; color: #ddd; border: 1px solid #444; }
li { margin-bottom: 0.6rem; }
.inline { display: inline; }
</style>
</head>
<body>
<h1>mirage &mdash; gravitational lensing</h1>

<fieldset>
<legend>upload</legend>
<form action="/uploads" method="post" enctype="multipart/form-data">
<input type="file" name="file" required>
<button type="submit">upload</button>
</form>
</fieldset>

<fieldset>
<legend>uploads</legend>
<ul>
{{range .Uploads}}
<li>
<a href="/uploads/{{.}}">{{.}}</a>
<form class="inline" action="/preview/{{.}}" method="get">
mass <input type="number" name="mass" value="{{$.Defaults.Mass}}" step="any" size="8">
scale <input type="number" name="scale" value="{{$.Defaults.Scale}}" step="any" size="6">
width <input type="number" name="width" value="{{$.Defaults.Width}}" size="5">
<select name="method">
<option value="weak">weak</option>
<option value="geodesic">geodesic</option>
</select>
<button type="submit">preview</button>
</form>
<a href="/exports/gif/{{.}}?frames={{$.Defaults.Frames}}">gif</a>
<form class="inline" action="/delete/upload" method="post">
<input type="hidden" name="name" value="{{.}}">
<button type="submit">delete</button>
</form>
</li>
{{else}}
<li>no uploads yet</li>
{{end}}
</ul>
</fieldset>

<fieldset>
<legend>exports</legend>
<ul>
{{range .Exports}}
<li>
<a href="/exports/{{.}}">{{.}}</a>
<form class="inline" action="/delete/export" method="post">
<input type="hidden" name="name" value="{{.}}">
<button type="submit">delete</button>
</form>
</li>
{{else}}
<li>no exports yet</li>
{{end}}
</ul>
</fieldset>
</body>
</html>
`
