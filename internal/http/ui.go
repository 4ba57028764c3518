package http

import nethttp "net/http"

func dashboardHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(dashboardHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Lab Sample Tracker</title>
  <style>
    :root {
      --brand: #14325a;
      --brand-2: #1d5a94;
      --bg: #f7f7f7;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --head: #f0f0f0;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
    }
    header {
      background: linear-gradient(to right, var(--brand) 0, var(--brand-2) 100%);
      color: #fff;
      padding: 14px 24px;
    }
    header strong { font-size: 18px; }
    header span { margin-left: 12px; opacity: 0.8; }
    main { max-width: 1200px; margin: 0 auto; padding: 20px; }
    .panel { background: var(--paper); border: 1px solid var(--line); border-radius: 4px; margin-bottom: 18px; }
    .panel h3 { margin: 0; padding: 10px 14px; background: var(--head); border-bottom: 1px solid var(--line); font-size: 15px; }
    .panel .body { padding: 12px 14px; overflow-x: auto; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--line); vertical-align: top; }
    th { background: var(--head); font-weight: 600; }
    tr.clickable { cursor: pointer; }
    tr.clickable:hover { background: #eef4fb; }
    .badge { display: inline-block; padding: 2px 8px; border-radius: 10px; color: #fff; font-size: 12px; }
    .orange { background: #e08a00; } .blue { background: #2a6cb8; } .purple { background: #7b4bb0; }
    .teal { background: #178a82; } .green { background: #3c8d3c; } .red { background: #b83232; } .grey { background: #888; }
    .failed { background: #fbeaea; }
    .muted { color: var(--muted); }
    .actions a { margin-right: 10px; }
  </style>
</head>
<body>
  <header>
    <strong>Lab Sample Tracker</strong><span>Air, lead and bulk sample workflow</span>
  </header>
  <main>
    <section class="panel">
      <h3>Projects</h3>
      <div class="body"><table id="projects"><thead><tr><th>Project</th><th>Name</th><th>Address</th><th>Status</th></tr></thead><tbody></tbody></table></div>
    </section>
    <section class="panel">
      <h3 id="jobs-title">Jobs</h3>
      <div class="body"><table id="jobs"><thead><tr><th>Job</th><th>Kind</th><th>Allowance</th><th>Status</th></tr></thead><tbody><tr><td colspan="4" class="muted">Select a project.</td></tr></tbody></table></div>
    </section>
    <section class="panel">
      <h3 id="shifts-title">Shifts</h3>
      <div class="body"><table id="shifts"><thead><tr><th>Date</th><th>Supervisor</th><th>Status</th><th>Reports</th></tr></thead><tbody><tr><td colspan="4" class="muted">Select a job.</td></tr></tbody></table></div>
    </section>
    <section class="panel">
      <h3 id="samples-title">Samples</h3>
      <div class="body"><table id="samples"><thead><tr><th>Sample ID</th><th>Location</th><th>Avg flow</th><th>Result</th><th>Status</th></tr></thead><tbody><tr><td colspan="5" class="muted">Select a shift.</td></tr></tbody></table></div>
    </section>
    <section class="panel">
      <h3>Services</h3>
      <div class="body"><pre id="services" class="muted">loading…</pre></div>
    </section>
  </main>
  <script>
    function esc(v) {
      return String(v == null ? "" : v).replace(/[&<>"]/g, function (c) {
        return { "&": "&amp;", "<": "&lt;", ">": "&gt;", '"': "&quot;" }[c];
      });
    }
    async function api(path) {
      const res = await fetch(path);
      const body = await res.json();
      if (!res.ok) throw new Error(body.error || res.statusText);
      return body.data;
    }
    function fill(id, rows, empty, cols) {
      const tbody = document.querySelector("#" + id + " tbody");
      tbody.innerHTML = "";
      if (!rows.length) {
        tbody.innerHTML = '<tr><td colspan="' + cols + '" class="muted">' + empty + "</td></tr>";
        return tbody;
      }
      rows.forEach(function (tr) { tbody.appendChild(tr); });
      return tbody;
    }
    function row(cells, onClick, cls) {
      const tr = document.createElement("tr");
      tr.innerHTML = cells.map(function (c) { return "<td>" + c + "</td>"; }).join("");
      if (onClick) { tr.className = "clickable"; tr.onclick = onClick; }
      if (cls) tr.classList.add(cls);
      return tr;
    }
    async function loadProjects() {
      const items = await api("/api/v1/projects?limit=200");
      fill("projects", items.map(function (p) {
        return row([esc(p.project_id), esc(p.name), esc(p.address), esc(p.status)], function () { loadJobs(p); });
      }), "No projects yet.", 4);
    }
    async function loadJobs(p) {
      document.getElementById("jobs-title").textContent = "Jobs - " + p.project_id;
      const items = await api("/api/v1/jobs?project_id=" + encodeURIComponent(p.id));
      fill("jobs", items.map(function (j) {
        return row([esc(j.name), esc(j.kind), j.sample_allowance || "unlimited", esc(j.status)], function () { loadShifts(j); });
      }), "No jobs for this project.", 4);
    }
    async function loadShifts(j) {
      document.getElementById("shifts-title").textContent = "Shifts - " + j.name;
      const items = await api("/api/v1/shifts?job_id=" + encodeURIComponent(j.id));
      fill("shifts", items.map(function (v) {
        const s = v.shift, d = v.display;
        const links = '<span class="actions">' +
          '<a href="/api/v1/reports/shifts/' + s.id + '.pdf">Shift report</a>' +
          '<a href="/api/v1/reports/fibre-id/' + s.id + '.pdf">Fibre ID</a>' +
          '<a href="/api/v1/reports/lead-coc/' + s.id + '.pdf">Lead CoC</a>' +
          '<a href="/api/v1/reports/shifts/' + s.id + '/samples.csv">CSV</a></span>';
        return row([esc(s.date), esc(s.supervisor), '<span class="badge ' + d.color + '">' + esc(d.text) + "</span>", links],
          function () { loadSamples(s); });
      }), "No shifts for this job.", 4);
    }
    async function loadSamples(s) {
      document.getElementById("samples-title").textContent = "Samples - " + s.date;
      const items = await api("/api/v1/shifts/" + s.id + "/samples");
      fill("samples", items.map(function (x) {
        const result = x.analysis ? x.analysis.reported_concentration : "";
        return row([esc(x.full_sample_id), esc(x.is_field_blank ? "Field blank" : x.location),
          x.average_flowrate == null ? "-" : x.average_flowrate, esc(result), esc(x.status)],
          null, x.status === "failed" ? "failed" : "");
      }), "No samples collected.", 5);
    }
    async function loadServices() {
      const res = await fetch("/api/v1/status/services");
      document.getElementById("services").textContent = JSON.stringify(await res.json(), null, 2);
    }
    loadProjects().catch(function (e) {
      fill("projects", [], esc(e.message), 4);
    });
    loadServices();
  </script>
</body>
</html>`
