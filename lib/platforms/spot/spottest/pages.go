package spottest

import "html/template"

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html><body>
<form id="fm1" method="post">
	{{if .Error}}<div class="alert alert-danger">{{.Error}}</div>{{end}}
	<input id="username" name="username" type="text">
	<input id="password" name="password" type="password">
	{{if .Execution}}<input type="hidden" name="execution" value="{{.Execution}}">{{end}}
	<input type="hidden" name="_eventId" value="submit">
</form>
</body></html>`))

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html><head><meta name="csrf-token" content="page-token"></head><body>
<div class="user-profile"><div class="profile-text">{{.Name}} {{.Nim}}</div></div>
<table id="tabel-mk">
	<thead><tr><th>Kode</th><th>Mata Kuliah</th><th>SKS</th><th>Dosen</th><th>Tahun Akademik</th></tr></thead>
	<tbody>
		<tr>
			<td>IK301</td>
			<td><a href="/mhs/matakuliah/{{.CourseId}}">Basis Data</a></td>
			<td>3 SKS</td>
			<td>Dr. Budi Santoso</td>
			<td>{{.AcademicYear}}</td>
		</tr>
		<tr>
			<td>IK302</td>
			<td><a href="/mhs/matakuliah/2510009533">Rekayasa Perangkat Lunak</a></td>
			<td>2 SKS</td>
			<td>Siti Aminah</td>
			<td>{{.AcademicYear}}</td>
		</tr>
	</tbody>
</table>
</body></html>`))

var coursePage = template.Must(template.New("course").Parse(`<!DOCTYPE html>
<html><body>
<div id="deskripsi-mk">Perancangan basis data relasional.</div>
<a id="rps" href="/mhs/rps/88123">RPS</a>
<ul>
	<li class="topik-item" data-id="1358801" data-course="2510009532">
		<a class="topik-link" href="/mhs/topik/2510009532/1358801">Pertemuan 1</a>
		<span class="akses-terakhir">01 Sep 2025 08:30</span>
	</li>
	<li class="topik-item locked" data-id="1358802" data-course="2510009532">Pertemuan 2</li>
</ul>
</body></html>`))

var topicPage = template.Must(template.New("topic").Parse(`<!DOCTYPE html>
<html><head><meta name="csrf-token" content="page-token"></head><body>
<div id="topik">
	<div id="deskripsi-topik">Pengenalan model relasional.</div>
	<div class="konten-item" data-id="501">
		<div class="konten-body"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe></div>
	</div>
	<div class="tugas-item" data-mulai="2025-09-01 08:00" data-selesai="{{.DueDate}}">
		<form action="/mhs/tugas_store" method="post" enctype="multipart/form-data">
			<input type="hidden" name="_token" value="{{.Token}}">
			<input type="hidden" name="id_tg" value="{{.TaskId}}">
		</form>
		<h5 class="tugas-judul">Tugas 1: ERD</h5>
		<div class="tugas-deskripsi">Buat ERD.</div>
		{{with .Answer}}
		<div class="jawaban" data-id="{{.Id}}" data-dinilai="0" data-tanggal="2025-09-07 20:00:00">
			<div class="jawaban-isi">{{.Content}}</div>
			{{if .File}}<a class="jawaban-file" href="/storage/jawaban/{{.File}}">{{.File}}</a>{{end}}
			<div class="jawaban-catatan">{{.Notes}}</div>
		</div>
		{{end}}
	</div>
</div>
</body></html>`))
